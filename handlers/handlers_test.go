package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"isabet-pos/hub"
	"isabet-pos/models"
	"isabet-pos/state"
	"isabet-pos/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var dbSeq atomic.Int64

// newTestHandler builds a handler over an isolated in-memory database seeded
// with the default accounts and a two-product catalog.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Sale{}))

	seedUsers := []struct {
		username string
		password string
		role     string
	}{
		{"kasa", "kasa", models.RoleCashier},
		{"garson1", "1", models.RoleWaiter},
	}
	for _, u := range seedUsers {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.User{Username: u.username, Password: string(hashed), Role: u.role}).Error)
	}

	products := []models.Product{
		{ID: 1001, Name: "İSKENDER - 120 GR", Price: 275.00, Category: "ET - TAVUK"},
		{ID: 3005, Name: "ÇAY", Price: 10.00, Category: "İÇECEK"},
	}
	require.NoError(t, db.Create(&products).Error)

	st := state.New()
	st.SetProducts(products)
	return New(db, st, hub.New())
}

func dialTest(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	r := gin.New()
	r.GET("/ws", h.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": typ, "payload": payload}))
}

// readFrame reads until a frame of the wanted type arrives, skipping
// broadcast snapshots interleaved with direct replies.
func readFrame(t *testing.T, conn *websocket.Conn, want string) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for i := 0; i < 20; i++ {
		var f frame
		require.NoError(t, conn.ReadJSON(&f), "waiting for %q", want)
		if f.Type == want {
			return f
		}
	}
	t.Fatalf("frame %q not received", want)
	return frame{}
}

func loginAs(t *testing.T, conn *websocket.Conn, username, password string) frame {
	t.Helper()
	send(t, conn, "login", map[string]interface{}{"username": username, "password": password})
	return readFrame(t, conn, "login_success")
}

// tableCopy snapshots one table under the state lock.
func tableCopy(h *Handler, id string) models.Table {
	h.State.Lock()
	defer h.State.Unlock()
	return *h.State.FindTable(id)
}

func TestLoginSuccessCarriesBootstrapSnapshot(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)

	f := loginAs(t, conn, "kasa", "kasa")

	user := f.Payload["user"].(map[string]interface{})
	assert.Equal(t, "kasa", user["username"])
	assert.Equal(t, models.RoleCashier, user["role"])
	assert.NotEmpty(t, f.Payload["token"])
	assert.Len(t, f.Payload["tables"], 3)
	assert.Len(t, f.Payload["products"], 2)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)

	send(t, conn, "login", map[string]interface{}{"username": "kasa", "password": "wrong"})
	f := readFrame(t, conn, "login_fail")
	assert.Equal(t, "invalid username or password", f.Payload["error"])

	// Unknown user gets the exact same answer.
	send(t, conn, "login", map[string]interface{}{"username": "nobody", "password": "x"})
	f = readFrame(t, conn, "login_fail")
	assert.Equal(t, "invalid username or password", f.Payload["error"])
}

func TestReauthenticateWithToken(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	token := loginAs(t, conn, "garson1", "1").Payload["token"].(string)

	conn2 := dialTest(t, h)
	send(t, conn2, "reauthenticate", map[string]interface{}{"token": token})
	f := readFrame(t, conn2, "login_success")
	user := f.Payload["user"].(map[string]interface{})
	assert.Equal(t, "garson1", user["username"])

	conn3 := dialTest(t, h)
	send(t, conn3, "reauthenticate", map[string]interface{}{"token": "garbage"})
	readFrame(t, conn3, "login_fail")
}

func TestUnknownAndMalformedFrames(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)

	send(t, conn, "fly_to_the_moon", map[string]interface{}{})
	f := readFrame(t, conn, "error")
	assert.Contains(t, f.Payload["message"], "unknown request type: fly_to_the_moon")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	f = readFrame(t, conn, "error")
	assert.Equal(t, "invalid message format", f.Payload["message"])
}

func TestUnauthenticatedMutationRejected(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)

	send(t, conn, "add_order_item", map[string]interface{}{
		"tableId": "masa-1", "productId": 1001, "quantity": 2,
	})
	f := readFrame(t, conn, "order_update_fail")
	assert.Equal(t, "not logged in", f.Payload["error"])

	table := tableCopy(h, "masa-1")
	assert.Equal(t, models.TableStatusEmpty, table.Status)
	assert.Equal(t, 0.0, table.Total)
	assert.Empty(t, table.Order)
}

func TestWaiterDeniedCashierCommands(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "garson1", "1")

	h.State.Lock()
	tablesBefore, _ := json.Marshal(h.State.Tables)
	productsBefore, _ := json.Marshal(h.State.Products)
	h.State.Unlock()

	denied := []struct {
		cmd      string
		failType string
		payload  map[string]interface{}
	}{
		{"close_table", "table_operation_fail", map[string]interface{}{"tableId": "masa-1"}},
		{"add_table", "table_operation_fail", map[string]interface{}{"name": "Bahçe 1"}},
		{"delete_table", "table_operation_fail", map[string]interface{}{"tableId": "masa-1"}},
		{"edit_table_name", "table_operation_fail", map[string]interface{}{"tableId": "masa-1", "newName": "X"}},
		{"add_manual_order_item", "manual_order_update_fail", map[string]interface{}{"tableId": "masa-1", "name": "X", "price": 5, "quantity": 1}},
		{"add_product_to_main_menu", "error", map[string]interface{}{"name": "X", "price": 5, "category": "Y"}},
		{"update_main_menu_product", "error", map[string]interface{}{"id": 1001, "name": "X", "price": 5, "category": "Y"}},
		{"bulk_update_products", "bulk_update_products_fail", map[string]interface{}{"products": []interface{}{}}},
		{"complete_quick_sale", "quick_sale_fail", map[string]interface{}{"items": []interface{}{}}},
		{"get_sales_report", "error", nil},
		{"get_waiters_list", "error", nil},
		{"add_waiter", "waiter_operation_fail", map[string]interface{}{"username": "g2", "password": "p"}},
		{"edit_waiter_password", "waiter_operation_fail", map[string]interface{}{"userId": 2, "newPassword": "p"}},
		{"delete_waiter", "waiter_operation_fail", map[string]interface{}{"userId": 2}},
	}
	for _, d := range denied {
		send(t, conn, d.cmd, d.payload)
		f := readFrame(t, conn, d.failType)
		if d.failType == "error" {
			assert.Equal(t, "permission denied", f.Payload["message"], d.cmd)
		} else {
			assert.Equal(t, "permission denied", f.Payload["error"], d.cmd)
		}
	}

	h.State.Lock()
	tablesAfter, _ := json.Marshal(h.State.Tables)
	productsAfter, _ := json.Marshal(h.State.Products)
	h.State.Unlock()
	assert.JSONEq(t, string(tablesBefore), string(tablesAfter))
	assert.JSONEq(t, string(productsBefore), string(productsAfter))

	var userCount int64
	h.DB.Model(&models.User{}).Count(&userCount)
	assert.EqualValues(t, 2, userCount)
}

// The scenario from the shop floor: order two iskenders on masa-1, take them
// off again, then close the table; nothing must reach the archive.
func TestOrderLifecycle(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "add_order_item", map[string]interface{}{
		"tableId": "masa-1", "productId": 1001, "quantity": 2,
	})
	readFrame(t, conn, "order_update_success")

	table := tableCopy(h, "masa-1")
	assert.Equal(t, 550.0, table.Total)
	assert.Equal(t, models.TableStatusOccupied, table.Status)
	require.NotNil(t, table.WaiterUsername)
	assert.Equal(t, "kasa", *table.WaiterUsername)
	require.Len(t, table.Order, 1)
	assert.Equal(t, 275.0, table.Order[0].PriceAtOrder)

	send(t, conn, "remove_order_item", map[string]interface{}{
		"tableId": "masa-1", "productId": 1001, "description": "",
	})
	readFrame(t, conn, "order_update_success")

	table = tableCopy(h, "masa-1")
	assert.Equal(t, models.TableStatusEmpty, table.Status)
	assert.Equal(t, 0.0, table.Total)
	assert.Nil(t, table.WaiterUsername)

	// Closing the now-empty table succeeds and archives nothing.
	send(t, conn, "close_table", map[string]interface{}{"tableId": "masa-1"})
	readFrame(t, conn, "table_operation_success")

	var archived int64
	h.DB.Model(&models.Sale{}).Count(&archived)
	assert.EqualValues(t, 0, archived)
}

func TestSameProductAndDescriptionMergesIntoOneLine(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	add := func(quantity int, description string) {
		send(t, conn, "add_order_item", map[string]interface{}{
			"tableId": "masa-1", "productId": 1001, "quantity": quantity, "description": description,
		})
		readFrame(t, conn, "order_update_success")
	}

	add(1, "")
	add(2, "")
	add(1, "az pişmiş")

	table := tableCopy(h, "masa-1")
	require.Len(t, table.Order, 2)
	assert.Equal(t, 3, table.Order[0].Quantity)
	assert.Equal(t, 1, table.Order[1].Quantity)
	assert.Equal(t, 4*275.0, table.Total)
}

func TestRemoveNonLastLineKeepsTableOccupied(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	for _, pid := range []int{1001, 3005} {
		send(t, conn, "add_order_item", map[string]interface{}{
			"tableId": "masa-2", "productId": pid, "quantity": 1,
		})
		readFrame(t, conn, "order_update_success")
	}

	send(t, conn, "remove_order_item", map[string]interface{}{
		"tableId": "masa-2", "productId": 3005,
	})
	readFrame(t, conn, "order_update_success")

	table := tableCopy(h, "masa-2")
	assert.Equal(t, models.TableStatusOccupied, table.Status)
	assert.NotNil(t, table.WaiterUsername)
	require.Len(t, table.Order, 1)
	assert.Equal(t, 275.0, table.Total)
}

func TestRemoveMissingLineFails(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "remove_order_item", map[string]interface{}{
		"tableId": "masa-1", "productId": 1001,
	})
	f := readFrame(t, conn, "order_update_fail")
	assert.Equal(t, "order line not found", f.Payload["error"])
}

func TestCloseTableArchivesEveryLine(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "add_order_item", map[string]interface{}{
		"tableId": "masa-1", "productId": 1001, "quantity": 2,
	})
	readFrame(t, conn, "order_update_success")
	send(t, conn, "add_manual_order_item", map[string]interface{}{
		"tableId": "masa-1", "name": "GÜNÜN MENÜSÜ", "price": 90.0, "quantity": 1,
	})
	readFrame(t, conn, "manual_order_update_success")

	send(t, conn, "close_table", map[string]interface{}{"tableId": "masa-1"})
	readFrame(t, conn, "table_operation_success")

	var sales []models.Sale
	require.NoError(t, h.DB.Find(&sales).Error)
	require.Len(t, sales, 2)
	for _, s := range sales {
		assert.Equal(t, "Masa 1", s.TableName)
		assert.Equal(t, "kasa", s.ClosedBy)
		assert.NotZero(t, s.ClosingTimestamp)
	}

	table := tableCopy(h, "masa-1")
	assert.Equal(t, models.TableStatusEmpty, table.Status)
	assert.Equal(t, 0.0, table.Total)
	assert.Nil(t, table.WaiterUsername)
	assert.Empty(t, table.Order)
}

func TestOrderLinePriceSurvivesCatalogEdit(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "add_order_item", map[string]interface{}{
		"tableId": "masa-1", "productId": 1001, "quantity": 1,
	})
	readFrame(t, conn, "order_update_success")

	send(t, conn, "update_main_menu_product", map[string]interface{}{
		"id": 1001, "name": "İSKENDER - 120 GR", "price": 999.0, "category": "ET - TAVUK",
	})
	readFrame(t, conn, "main_menu_product_updated")

	table := tableCopy(h, "masa-1")
	assert.Equal(t, 275.0, table.Order[0].PriceAtOrder)
	assert.Equal(t, 275.0, table.Total)
}

func TestDeleteTableIsUnconditional(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "add_order_item", map[string]interface{}{
		"tableId": "masa-2", "productId": 1001, "quantity": 1,
	})
	readFrame(t, conn, "order_update_success")

	// Occupied tables are deleted along with their open order.
	send(t, conn, "delete_table", map[string]interface{}{"tableId": "masa-2"})
	readFrame(t, conn, "table_operation_success")

	h.State.Lock()
	assert.Nil(t, h.State.FindTable("masa-2"))
	h.State.Unlock()
}

func TestQuickSale(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "complete_quick_sale", map[string]interface{}{"items": []interface{}{}})
	f := readFrame(t, conn, "quick_sale_fail")
	assert.Equal(t, "cart is empty", f.Payload["error"])

	send(t, conn, "complete_quick_sale", map[string]interface{}{
		"cashierUsername": "kasa",
		"items": []map[string]interface{}{
			{"productId": "3005", "name": "ÇAY", "priceAtOrder": 10.0, "quantity": 4},
		},
	})
	readFrame(t, conn, "quick_sale_success")

	var sales []models.Sale
	require.NoError(t, h.DB.Find(&sales).Error)
	require.Len(t, sales, 1)
	assert.Equal(t, models.QuickSaleTableName, sales[0].TableName)
	assert.Equal(t, "kasa", sales[0].WaiterUsername)
	assert.Equal(t, 4, sales[0].Quantity)

	// Quick sales never touch the table ledger.
	for _, id := range []string{"masa-1", "masa-2", "kamelya-1"} {
		assert.Equal(t, models.TableStatusEmpty, tableCopy(h, id).Status)
	}
}

func TestSalesReportNewestFirst(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	older := models.Sale{Name: "ÇAY", Quantity: 1, TableName: "Masa 1", ClosedBy: "kasa", ClosingTimestamp: 1000}
	newer := models.Sale{Name: "AYRAN", Quantity: 1, TableName: "Masa 2", ClosedBy: "kasa", ClosingTimestamp: 2000}
	require.NoError(t, h.DB.Create(&older).Error)
	require.NoError(t, h.DB.Create(&newer).Error)

	send(t, conn, "get_sales_report", nil)
	f := readFrame(t, conn, "sales_report_data")

	sales := f.Payload["sales"].([]interface{})
	require.Len(t, sales, 2)
	first := sales[0].(map[string]interface{})
	assert.Equal(t, "AYRAN", first["name"])
}

func TestAddProductAssignsNextID(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "add_product_to_main_menu", map[string]interface{}{
		"name": "KÜNEFE", "price": 120.0, "category": "tatlı",
	})
	readFrame(t, conn, "main_menu_product_added")

	var saved models.Product
	require.NoError(t, h.DB.Where("name = ?", "KÜNEFE").First(&saved).Error)
	assert.EqualValues(t, 6000, saved.ID)
	assert.Equal(t, "TATLI", saved.Category)

	h.State.Lock()
	assert.NotNil(t, h.State.FindProduct(6000))
	h.State.Unlock()
}

func TestUpdateMissingProductFails(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "update_main_menu_product", map[string]interface{}{
		"id": 42, "name": "YOK", "price": 1.0, "category": "YOK",
	})
	f := readFrame(t, conn, "error")
	assert.Equal(t, "product to update not found", f.Payload["message"])
}

func TestBulkUpdateSkipsMalformedRows(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "bulk_update_products", map[string]interface{}{
		"products": []map[string]interface{}{
			{"id": 7001, "name": "MERCİMEK ÇORBA", "price": 50.0, "category": "çorba"},
			{"id": 7002, "name": "EKSİK ÜRÜN", "category": "çorba"}, // no price
		},
	})
	f := readFrame(t, conn, "bulk_update_products_success")
	assert.Contains(t, f.Payload["message"], "1 products saved, 1 rows skipped")

	var count int64
	h.DB.Model(&models.Product{}).Count(&count)
	assert.EqualValues(t, 1, count)

	h.State.Lock()
	assert.Len(t, h.State.Products, 1)
	assert.Equal(t, "ÇORBA", h.State.Products[0].Category)
	h.State.Unlock()
}

func TestWaiterManagement(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "add_waiter", map[string]interface{}{"username": "garson2", "password": "2"})
	readFrame(t, conn, "waiter_operation_success")

	send(t, conn, "add_waiter", map[string]interface{}{"username": "garson2", "password": "2"})
	f := readFrame(t, conn, "waiter_operation_fail")
	assert.Equal(t, "this username already exists", f.Payload["error"])

	send(t, conn, "get_waiters_list", nil)
	f = readFrame(t, conn, "waiters_list")
	waiters := f.Payload["waiters"].([]interface{})
	assert.Len(t, waiters, 2)

	var garson2 models.User
	require.NoError(t, h.DB.Where("username = ?", "garson2").First(&garson2).Error)

	send(t, conn, "edit_waiter_password", map[string]interface{}{"userId": garson2.ID, "newPassword": "yeni"})
	readFrame(t, conn, "waiter_operation_success")

	var updated models.User
	require.NoError(t, h.DB.First(&updated, garson2.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("yeni")))

	send(t, conn, "delete_waiter", map[string]interface{}{"userId": garson2.ID})
	readFrame(t, conn, "waiter_operation_success")

	// The seeded cashier is not deletable through this command.
	var kasa models.User
	require.NoError(t, h.DB.Where("username = ?", "kasa").First(&kasa).Error)
	send(t, conn, "delete_waiter", map[string]interface{}{"userId": kasa.ID})
	f = readFrame(t, conn, "waiter_operation_fail")
	assert.Contains(t, f.Payload["error"], "cashier accounts are permanent")
}

func TestBroadcastReachesOtherTerminals(t *testing.T) {
	h := newTestHandler(t)
	actor := dialTest(t, h)
	observer := dialTest(t, h) // stays unauthenticated
	loginAs(t, actor, "garson1", "1")

	send(t, actor, "add_order_item", map[string]interface{}{
		"tableId": "kamelya-1", "productId": 3005, "quantity": 2,
	})
	readFrame(t, actor, "order_update_success")

	f := readFrame(t, observer, "tables_update")
	tables := f.Payload["tables"].([]interface{})
	require.Len(t, tables, 3)

	var kamelya map[string]interface{}
	for _, raw := range tables {
		tbl := raw.(map[string]interface{})
		if tbl["id"] == "kamelya-1" {
			kamelya = tbl
		}
	}
	require.NotNil(t, kamelya)
	assert.Equal(t, models.TableStatusOccupied, kamelya["status"])
	assert.Equal(t, 20.0, kamelya["total"])
	assert.Equal(t, "garson1", kamelya["waiterUsername"])
}

func TestLogoutClearsSession(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTest(t, h)
	loginAs(t, conn, "kasa", "kasa")

	send(t, conn, "logout", nil)
	send(t, conn, "logout", nil) // idempotent

	send(t, conn, "add_order_item", map[string]interface{}{
		"tableId": "masa-1", "productId": 1001, "quantity": 1,
	})
	f := readFrame(t, conn, "order_update_fail")
	assert.Equal(t, "not logged in", f.Payload["error"])
}
