// models/customer.go
package models

// CustomerMode tells whether a job card points at a registered customer or
// carries walk-in details typed in by the admin.
type CustomerMode string

const (
	CustomerExisting CustomerMode = "existing"
	CustomerManual   CustomerMode = "manual"
)

// ManualCustomer holds walk-in customer details stored on the job card itself.
type ManualCustomer struct {
	Name          string `gorm:"size:255" json:"name"`
	Phone         string `gorm:"size:32" json:"phone"`
	Email         string `gorm:"size:255" json:"email,omitempty"`
	VehicleNumber string `gorm:"size:32" json:"vehicleNumber,omitempty"`
}

func (m ManualCustomer) IsZero() bool {
	return m == ManualCustomer{}
}

// CustomerInfo is Linked(CustomerID) or Manual(details); exactly one side is set.
type CustomerInfo struct {
	Mode       CustomerMode
	CustomerID uint
	Manual     ManualCustomer
}

func LinkedCustomer(id uint) CustomerInfo {
	return CustomerInfo{Mode: CustomerExisting, CustomerID: id}
}

func ManualCustomerInfo(m ManualCustomer) CustomerInfo {
	return CustomerInfo{Mode: CustomerManual, Manual: m}
}

func (c CustomerInfo) IsLinked() bool { return c.Mode == CustomerExisting }
