package scraper

const (
	// TimePlaceholder stands in for a row whose broadcast time could not be read
	TimePlaceholder = "-"
	// TitlePlaceholder stands in for a row whose product name could not be read
	TitlePlaceholder = "(상품명)"
	// MaxTitleLength caps titles derived from a row's flattened text (runes)
	MaxTitleLength = 120
)

// ScheduleItem is one broadcast slot on the schedule
type ScheduleItem struct {
	Time    string `json:"time"`
	Title   string `json:"title"`
	Channel string `json:"channel,omitempty"`
	Price   string `json:"price,omitempty"`
}

// Axis is one of the two independent filter dimensions
type Axis int

const (
	AxisShop Axis = iota
	AxisCategory
)

func (a Axis) String() string {
	if a == AxisShop {
		return "shop"
	}
	return "category"
}

// FilterSpec holds the user's filter choices. The zero value means "no filtering".
// It is built once at startup and never modified during a run.
type FilterSpec struct {
	ShopText               string
	ShopLabelPattern       string
	CategoryText           string
	CategoryLabelPattern   string
	CategoryKeywordPattern string
}

// Target returns the text and label pattern configured for axis
func (f FilterSpec) Target(axis Axis) (text, pattern string) {
	if axis == AxisShop {
		return f.ShopText, f.ShopLabelPattern
	}
	return f.CategoryText, f.CategoryLabelPattern
}

// IsEmpty reports whether no filter is configured on either axis
func (f FilterSpec) IsEmpty() bool {
	return f.ShopText == "" && f.ShopLabelPattern == "" &&
		f.CategoryText == "" && f.CategoryLabelPattern == "" &&
		f.CategoryKeywordPattern == ""
}

// Labels returns one human-readable label per active axis: the text filter
// when set, otherwise the label pattern.
func (f FilterSpec) Labels() []string {
	var labels []string
	for _, axis := range []Axis{AxisShop, AxisCategory} {
		text, pattern := f.Target(axis)
		switch {
		case text != "":
			labels = append(labels, text)
		case pattern != "":
			labels = append(labels, pattern)
		}
	}
	if len(labels) == 0 && f.CategoryKeywordPattern != "" {
		labels = append(labels, f.CategoryKeywordPattern)
	}
	return labels
}
