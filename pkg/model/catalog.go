package model

type Folder struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ParentID  int    `json:"parent_id"`
	Published bool   `json:"published"`
	Path      string `json:"path"`
	Media     string `json:"media,omitempty"`
}

type Product struct {
	ID             int     `json:"id"`
	ProductOfferID int     `json:"product_offer_id"`
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	Published      bool    `json:"published"`
	Media          *string `json:"media"`
	Price          Cents   `json:"price"`
}
