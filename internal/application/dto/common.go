package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// FieldError regla de validación incumplida por un campo del body.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// InsufficientStockDetails faltante reportado al rechazar una salida de inventario.
type InsufficientStockDetails struct {
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name,omitempty"`
	Available string `json:"available"`
	Requested string `json:"requested"`
}
