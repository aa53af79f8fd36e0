package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 接口。
//
// 示例：
//
//	var s core.Store = NewMemoryStore()
//	var s core.Store, _ = NewRedisStore(RedisConfig{Addr: "127.0.0.1:6379"})
//	var s core.Store, _ = NewBadgerStore("/var/lib/shoprec/prefs")
