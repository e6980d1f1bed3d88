package shared

// Title is the rank a player earns by finishing order.
type Title string

const (
	President     Title = "President"
	VicePresident Title = "Vice President"
	Neutral       Title = "Neutral"
	ViceScum      Title = "Vice Scum"
	Scum          Title = "Scum"
)

// Standing records when a player emptied their hand and the title it earned.
// Title is empty until it can be decided.
type Standing struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Title    Title  `json:"title"`
	Position int    `json:"position"`
}
