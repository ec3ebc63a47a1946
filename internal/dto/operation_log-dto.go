package dto

type OperationLogQueryDTO struct {
	Username      string `query:"username"`
	OperationType string `query:"operation_type"`
	StartDate     string `query:"startDate"`
	EndDate       string `query:"endDate"`
}
