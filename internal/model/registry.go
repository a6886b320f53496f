package model

// AllModels 开发环境 AutoMigrate 与集成测试使用的全部表
// 生产环境的 Schema 以 migrations/ 为准, 两边需要同步修改
func AllModels() []interface{} {
	return []interface{}{
		&PendingDeposit{},
		&PendingWithdrawal{},
		&ClosedRequest{},
		&UserBalance{},
		&OutboxMessage{},
	}
}
