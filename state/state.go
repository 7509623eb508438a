package state

import (
	"fmt"
	"sync"

	"isabet-pos/models"
)

// State owns every piece of live POS data: the table ledger and the in-memory
// catalog mirror. It is a single-writer structure: a command handler takes
// the lock for the whole duration of the command (mutation, persistence,
// broadcast), so handlers never observe each other's intermediate state.
type State struct {
	sync.Mutex

	Tables   []*models.Table
	Products []models.Product

	nextTableNum  int
	nextProductID uint
}

// New returns a State seeded with the default floor plan. Tables live only in
// memory, so every boot starts from the same layout.
func New() *State {
	return &State{
		Tables:        DefaultTables(),
		nextTableNum:  3,
		nextProductID: 6000,
	}
}

func DefaultTables() []*models.Table {
	return []*models.Table{
		{ID: "masa-1", Name: "Masa 1", Status: models.TableStatusEmpty, Order: []models.OrderLine{}, Type: "standart"},
		{ID: "masa-2", Name: "Masa 2", Status: models.TableStatusEmpty, Order: []models.OrderLine{}, Type: "standart"},
		{ID: "kamelya-1", Name: "Kamelya 1", Status: models.TableStatusEmpty, Order: []models.OrderLine{}, Type: "kamelya"},
	}
}

// The methods below assume the caller holds the lock.

func (s *State) FindTable(id string) *models.Table {
	for _, t := range s.Tables {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *State) FindProduct(id uint) *models.Product {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return &s.Products[i]
		}
	}
	return nil
}

// AddTable allocates the next masa-N id and appends an empty table.
func (s *State) AddTable(name string) *models.Table {
	t := &models.Table{
		ID:     fmt.Sprintf("masa-%d", s.nextTableNum),
		Name:   name,
		Status: models.TableStatusEmpty,
		Order:  []models.OrderLine{},
		Type:   "standart",
	}
	s.nextTableNum++
	s.Tables = append(s.Tables, t)
	return t
}

// RemoveTable deletes a table unconditionally, occupied or not.
func (s *State) RemoveTable(id string) bool {
	for i, t := range s.Tables {
		if t.ID == id {
			s.Tables = append(s.Tables[:i], s.Tables[i+1:]...)
			return true
		}
	}
	return false
}

// NextProductID hands out catalog ids for products added without an explicit
// id. Monotonic for the life of the process.
func (s *State) NextProductID() uint {
	id := s.nextProductID
	s.nextProductID++
	return id
}

// AddProduct appends to the catalog mirror, keeping the id counter ahead of
// explicitly supplied ids.
func (s *State) AddProduct(p models.Product) {
	s.Products = append(s.Products, p)
	if p.ID >= s.nextProductID {
		s.nextProductID = p.ID + 1
	}
}

// SetProducts installs the catalog mirror, keeping the id counter ahead of
// every known product so allocated ids never collide with loaded ones.
func (s *State) SetProducts(products []models.Product) {
	s.Products = products
	for _, p := range products {
		if p.ID >= s.nextProductID {
			s.nextProductID = p.ID + 1
		}
	}
}

// RecomputeTotal derives the table total from its current lines. Totals are
// never accumulated incrementally; this runs after every order mutation.
func (s *State) RecomputeTotal(t *models.Table) {
	var total float64
	for _, line := range t.Order {
		total += line.PriceAtOrder * float64(line.Quantity)
	}
	t.Total = total
}
