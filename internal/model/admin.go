package model

// DashboardOverview は管理ダッシュボードの集計値。
type DashboardOverview struct {
	TotalProducts    int     `json:"totalProducts"`
	ActiveProducts   int     `json:"activeProducts"`
	TotalUsers       int     `json:"totalUsers"`
	TotalOrders      int     `json:"totalOrders"`
	PendingOrders    int     `json:"pendingOrders"`
	ProcessingOrders int     `json:"processingOrders"`
	DeliveredOrders  int     `json:"deliveredOrders"`
	TotalRevenue     float64 `json:"totalRevenue"`
	TodayOrders      int     `json:"todayOrders"`
	TodayRevenue     float64 `json:"todayRevenue"`
}

// MonthlyStat は月次の売上集計。
type MonthlyStat struct {
	Period struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	} `json:"_id"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// DashboardStats は管理ダッシュボードAPIのレスポンス。
type DashboardStats struct {
	Overview         DashboardOverview `json:"overview"`
	RecentOrders     []Order           `json:"recentOrders"`
	LowStockProducts []Product         `json:"lowStockProducts"`
	MonthlyStats     []MonthlyStat     `json:"monthlyStats"`
}

// AdminUserDetail は管理者向けユーザー詳細APIのレスポンス。
type AdminUserDetail struct {
	User   User    `json:"user"`
	Orders []Order `json:"orders"`
}

// AdminUserUpdate は管理者によるユーザー更新APIのリクエストボディ。
type AdminUserUpdate struct {
	Role     *Role `json:"role,omitempty"`
	IsActive *bool `json:"isActive,omitempty"`
}
