package pills

// Pill es una entrada del catálogo.
type Pill struct {
	ID          string `json:"pillId"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	SideEffect  string `json:"sideEffect"`
	Warning     string `json:"warning"`
	Dosis       string `json:"dosis"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Category agrupa pills; Pill.Category guarda el nombre.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
}
