package store

// Sentinel 未采集到的字段值
const Sentinel = "NF"

// FieldMap 单个实体的字段值
type FieldMap map[string]string

// Value 读取字段，缺失时返回 Sentinel
func (f FieldMap) Value(name string) string {
	if v, ok := f[name]; ok {
		return v
	}
	return Sentinel
}

// Store 实体记录表，保持首次登记顺序
type Store struct {
	vars    []string
	records map[string]FieldMap
	order   []string
}

// New 创建记录表，vars 为需要预置 Sentinel 的变量
func New(vars []string) *Store {
	return &Store{
		vars:    append([]string(nil), vars...),
		records: make(map[string]FieldMap),
	}
}

// Register 登记实体并返回其记录；重复登记返回已有记录
func (s *Store) Register(id string) FieldMap {
	if rec, ok := s.records[id]; ok {
		return rec
	}
	rec := make(FieldMap, len(s.vars))
	for _, v := range s.vars {
		rec[v] = Sentinel
	}
	s.records[id] = rec
	s.order = append(s.order, id)
	return rec
}

// Get 查询实体记录
func (s *Store) Get(id string) (FieldMap, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Order 按登记顺序返回实体 ID
func (s *Store) Order() []string {
	return append([]string(nil), s.order...)
}

// Len 实体数量
func (s *Store) Len() int { return len(s.order) }

// Vars 预置变量
func (s *Store) Vars() []string {
	return append([]string(nil), s.vars...)
}
