package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g. "sale:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivUserView       = "user:view"
	PrivUserCreate     = "user:create"
	PrivUserUpdate     = "user:update"
	PrivUserDelete     = "user:delete"
	PrivUserPrivileges = "user:update_privilege"

	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
	PrivProductDelete = "product:delete"

	PrivCustomerView   = "customer:view"
	PrivCustomerCreate = "customer:create"
	PrivCustomerUpdate = "customer:update"
	PrivCustomerDelete = "customer:delete"

	PrivSaleView   = "sale:view"
	PrivSaleCreate = "sale:create"
	PrivSaleUpdate = "sale:update"
	PrivSaleDelete = "sale:delete"

	PrivDashboardView = "dashboard:view"
	PrivReportView    = "report:view"
)

var DefaultPrivileges = []Privilege{
	// User management
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserPrivileges, Name: "Update User Privileges"},
	// Catalog
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	// Customers
	{Code: PrivCustomerView, Name: "View Customer"},
	{Code: PrivCustomerCreate, Name: "Create Customer"},
	{Code: PrivCustomerUpdate, Name: "Update Customer"},
	{Code: PrivCustomerDelete, Name: "Delete Customer"},
	// Sales
	{Code: PrivSaleView, Name: "View Sale"},
	{Code: PrivSaleCreate, Name: "Create Sale"},
	{Code: PrivSaleUpdate, Name: "Update Sale Status"},
	{Code: PrivSaleDelete, Name: "Delete Sale"},
	// Dashboard and reports
	{Code: PrivDashboardView, Name: "View Dashboard"},
	{Code: PrivReportView, Name: "View Reports"},
}
