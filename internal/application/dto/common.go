package dto

// MaxPageLimit tope de elementos por página.
const MaxPageLimit = 100

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto y acota Limit a MaxPageLimit.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FunctionMessage respuesta exitosa de las funciones privilegiadas: {"message": "..."}.
type FunctionMessage struct {
	Message string `json:"message"`
}

// FunctionError respuesta de error de las funciones privilegiadas: {"error": "..."}.
type FunctionError struct {
	Error string `json:"error"`
}
