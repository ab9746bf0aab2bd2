package models

// CartLine is one line of an order being assembled; it never leaves the session until submit
type CartLine struct {
	CartID   string `json:"cart_id"`
	ItemID   uint   `json:"item_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

// Snapshot copies the line into its order form
func (l CartLine) Snapshot() OrderLine {
	return OrderLine{
		ItemID:   l.ItemID,
		Name:     l.Name,
		Price:    l.Price,
		Quantity: l.Quantity,
		Note:     l.Note,
	}
}
