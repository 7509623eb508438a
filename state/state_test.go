package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"isabet-pos/models"
)

func TestRecomputeTotal(t *testing.T) {
	s := New()
	table := s.FindTable("masa-1")
	assert.NotNil(t, table)

	table.Order = append(table.Order, models.OrderLine{ProductID: "1001", PriceAtOrder: 275, Quantity: 2})
	s.RecomputeTotal(table)
	assert.Equal(t, 550.0, table.Total)

	table.Order = append(table.Order, models.OrderLine{ProductID: "3005", PriceAtOrder: 10, Quantity: 3})
	s.RecomputeTotal(table)
	assert.Equal(t, 580.0, table.Total)

	table.Order = table.Order[:1]
	s.RecomputeTotal(table)
	assert.Equal(t, 550.0, table.Total)

	table.Order = nil
	s.RecomputeTotal(table)
	assert.Equal(t, 0.0, table.Total)
}

func TestAddTableAllocatesSequentialIDs(t *testing.T) {
	s := New()

	t1 := s.AddTable("Bahçe 1")
	t2 := s.AddTable("Bahçe 2")

	assert.Equal(t, "masa-3", t1.ID)
	assert.Equal(t, "masa-4", t2.ID)
	assert.Equal(t, models.TableStatusEmpty, t1.Status)
	assert.Len(t, s.Tables, 5)
}

func TestRemoveTable(t *testing.T) {
	s := New()

	assert.True(t, s.RemoveTable("masa-2"))
	assert.Nil(t, s.FindTable("masa-2"))
	assert.False(t, s.RemoveTable("masa-2"))
	assert.Len(t, s.Tables, 2)
}

func TestProductIDAllocation(t *testing.T) {
	s := New()

	assert.Equal(t, uint(6000), s.NextProductID())
	assert.Equal(t, uint(6001), s.NextProductID())

	// Loading a catalog with higher ids moves the counter past them.
	s.SetProducts([]models.Product{{ID: 9000, Name: "SU", Price: 10, Category: "İÇECEK"}})
	assert.Equal(t, uint(9001), s.NextProductID())

	s.AddProduct(models.Product{ID: 9500, Name: "ÇAY", Price: 10, Category: "İÇECEK"})
	assert.Equal(t, uint(9501), s.NextProductID())
}

func TestFindProduct(t *testing.T) {
	s := New()
	s.SetProducts([]models.Product{
		{ID: 1001, Name: "İSKENDER - 120 GR", Price: 275, Category: "ET - TAVUK"},
	})

	p := s.FindProduct(1001)
	assert.NotNil(t, p)
	assert.Equal(t, 275.0, p.Price)
	assert.Nil(t, s.FindProduct(42))
}
