package game

// ItemStack is a quantity of one item template.
type ItemStack struct {
	TemplateID string `json:"templateId"`
	Quantity   int    `json:"quantity"`
}

// Inventory is a list of item stacks with at most one stack per template.
type Inventory []ItemStack

// Count returns how many of the template the inventory holds.
func (inv Inventory) Count(templateID string) int {
	for _, s := range inv {
		if s.TemplateID == templateID {
			return s.Quantity
		}
	}
	return 0
}

// Add merges qty of the template into the inventory.
func (inv *Inventory) Add(templateID string, qty int) {
	if qty <= 0 {
		return
	}
	for i := range *inv {
		if (*inv)[i].TemplateID == templateID {
			(*inv)[i].Quantity += qty
			return
		}
	}
	*inv = append(*inv, ItemStack{TemplateID: templateID, Quantity: qty})
}

// Remove takes qty of the template out of the inventory. It reports false and
// changes nothing when there are not enough.
func (inv *Inventory) Remove(templateID string, qty int) bool {
	for i := range *inv {
		if (*inv)[i].TemplateID != templateID {
			continue
		}
		if (*inv)[i].Quantity < qty {
			return false
		}
		(*inv)[i].Quantity -= qty
		if (*inv)[i].Quantity == 0 {
			*inv = append((*inv)[:i], (*inv)[i+1:]...)
		}
		return true
	}
	return qty <= 0
}
