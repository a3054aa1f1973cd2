package models

type OutOfStockProduct struct {
	ProductID         int64  `json:"product_id"`
	ProductName       string `json:"product_name"`
	RequestedQuantity int    `json:"requested_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
}

type DeletedProduct struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type ValidateCartRequest struct {
	Items []CartLine `json:"items"`
}

type ValidateCartResponse struct {
	IsValid            bool                `json:"is_valid"`
	OutOfStockProducts []OutOfStockProduct `json:"out_of_stock_products"`
	DeletedProducts    []DeletedProduct    `json:"deleted_products"`
}
