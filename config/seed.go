package config

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"isabet-pos/models"
)

// Seed inserts the default accounts and the opening menu on an empty
// database. Existing rows are left alone.
func Seed(db *gorm.DB) error {
	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount == 0 {
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
			if err != nil {
				return err
			}
			user := models.User{Username: u.username, Password: string(hashed), Role: u.role}
			if err := db.Create(&user).Error; err != nil {
				return err
			}
		}
	}

	var productCount int64
	if err := db.Model(&models.Product{}).Count(&productCount).Error; err != nil {
		return err
	}
	if productCount == 0 {
		menu := DefaultMenu()
		if err := db.Create(&menu).Error; err != nil {
			return err
		}
	}

	return nil
}

// DefaultMenu is the opening menu of the shop.
func DefaultMenu() []models.Product {
	return []models.Product{
		{ID: 1001, Name: "İSKENDER - 120 GR", Price: 275.00, Category: "ET - TAVUK"},
		{ID: 1002, Name: "ET DÖNER EKMEK ARASI", Price: 150.00, Category: "ET - TAVUK"},
		{ID: 1003, Name: "ET DÖNER PORSİYON", Price: 175.00, Category: "ET - TAVUK"},
		{ID: 1004, Name: "TAVUK DÖNER EKMEK ARASI", Price: 130.00, Category: "ET - TAVUK"},
		{ID: 1005, Name: "TAVUK DÖNER PORSİYON", Price: 150.00, Category: "ET - TAVUK"},
		{ID: 1006, Name: "KÖFTE EKMEK", Price: 130.00, Category: "ET - TAVUK"},
		{ID: 1007, Name: "KÖFTE PORSİYON", Price: 150.00, Category: "ET - TAVUK"},
		{ID: 1008, Name: "KUZU ŞİŞ", Price: 150.00, Category: "ET - TAVUK"},
		{ID: 1009, Name: "ADANA ŞİŞ", Price: 150.00, Category: "ET - TAVUK"},
		{ID: 1010, Name: "PİRZOLA - 4 ADET", Price: 250.00, Category: "ET - TAVUK"},
		{ID: 1011, Name: "TAVUK FAJİTA", Price: 200.00, Category: "ET - TAVUK"},
		{ID: 1012, Name: "TAVUK (PİLİÇ) ÇEVİRME", Price: 250.00, Category: "ET - TAVUK"},
		{ID: 1013, Name: "ET DÖNER - KG", Price: 1300.00, Category: "ET - TAVUK"},
		{ID: 1014, Name: "ET DÖNER - 500 GR", Price: 650.00, Category: "ET - TAVUK"},
		{ID: 1015, Name: "TAVUK DÖNER - KG", Price: 800.00, Category: "ET - TAVUK"},
		{ID: 1016, Name: "TAVUK DÖNER - 500 GR", Price: 400.00, Category: "ET - TAVUK"},
		{ID: 2001, Name: "PİZZA KARIŞIK (ORTA BOY)", Price: 150.00, Category: "ATIŞTIRMALIK"},
		{ID: 2002, Name: "PİZZA KARIŞIK (BÜYÜK BOY)", Price: 200.00, Category: "ATIŞTIRMALIK"},
		{ID: 2003, Name: "LAHMACUN", Price: 75.00, Category: "ATIŞTIRMALIK"},
		{ID: 2004, Name: "PİDE ÇEŞİTLERİ", Price: 100.00, Category: "ATIŞTIRMALIK"},
		{ID: 2005, Name: "AYVALIK TOSTU", Price: 100.00, Category: "ATIŞTIRMALIK"},
		{ID: 2006, Name: "HAMBURGER", Price: 120.00, Category: "ATIŞTIRMALIK"},
		{ID: 2007, Name: "ÇİĞ KÖFTE KG (MARUL-LİMON)", Price: 300.00, Category: "ATIŞTIRMALIK"},
		{ID: 3001, Name: "OSMANLI ŞERBETİ - 1 LİTRE", Price: 75.00, Category: "İÇECEK"},
		{ID: 3002, Name: "LİMONATA", Price: 75.00, Category: "İÇECEK"},
		{ID: 3003, Name: "SU", Price: 10.00, Category: "İÇECEK"},
		{ID: 3004, Name: "AYRAN", Price: 15.00, Category: "İÇECEK"},
		{ID: 3005, Name: "ÇAY", Price: 10.00, Category: "İÇECEK"},
		{ID: 3006, Name: "GAZOZ", Price: 25.00, Category: "İÇECEK"},
		{ID: 4001, Name: "EV BAKLAVASI - KG", Price: 400.00, Category: "TATLI"},
		{ID: 4002, Name: "EV BAKLAVASI - 500 GRAM", Price: 200.00, Category: "TATLI"},
		{ID: 4003, Name: "EV BAKLAVASI - PORSİYON", Price: 75.00, Category: "TATLI"},
		{ID: 4004, Name: "AŞURE - 500 GRAM", Price: 100.00, Category: "TATLI"},
		{ID: 4005, Name: "HÖŞMERİM - 500 GRAM", Price: 100.00, Category: "TATLI"},
		{ID: 4006, Name: "DİĞER PASTA ÇEŞİTLERİ", Price: 50.00, Category: "TATLI"},
		{ID: 4007, Name: "YAĞLI GÖZLEME", Price: 50.00, Category: "TATLI"},
		{ID: 4008, Name: "İÇLİ GÖZLEME", Price: 60.00, Category: "TATLI"},
		{ID: 5001, Name: "KELLE PAÇA ÇORBA", Price: 60.00, Category: "ÇORBA"},
		{ID: 5002, Name: "TARHANA ÇORBA", Price: 60.00, Category: "ÇORBA"},
	}
}
