package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/brioso-market/internal/model"
)

// SeedIfEmpty writes the default users and products when either collection
// is empty. It reports which collections were seeded.
func (s *Store) SeedIfEmpty(ctx context.Context) (users, products bool, err error) {
	err = s.Update(ctx, func(tx *Tx) error {
		now := time.Now().UTC()

		existingUsers, err := tx.Users()
		if err != nil {
			return err
		}
		if len(existingUsers) == 0 {
			seed := defaultUsers(now)
			if err := tx.SetUsers(seed); err != nil {
				return err
			}
			if _, err := tx.RaiseSeq(SeqUsers, seed[len(seed)-1].ID); err != nil {
				return err
			}
			users = true
		}

		existingProducts, err := tx.Products()
		if err != nil {
			return err
		}
		if len(existingProducts) == 0 {
			seed := defaultProducts(now)
			if err := tx.SetProducts(seed); err != nil {
				return err
			}
			if _, err := tx.RaiseSeq(SeqProducts, seed[len(seed)-1].ID); err != nil {
				return err
			}
			products = true
		}
		return nil
	})
	if err != nil {
		return false, false, err
	}
	if users || products {
		s.log.Info("seeded default data", "users", users, "products", products)
	}
	return users, products, nil
}

func defaultUsers(now time.Time) []model.User {
	seed := []struct {
		id                                    int64
		name, email, password, phone, address string
	}{
		{1, "NEXUS Admin", "admin@nexus.com", "admin123", "555-0100", "Sede Principal NEXUS, Ciudad Central"},
		{2, "Juan Pérez", "juan.perez@email.com", "password123", "555-0123", "Calle Principal 123, Zona Norte"},
		{3, "María García", "maria.garcia@email.com", "password123", "555-0124", "Avenida Central 456, Centro"},
		{4, "Carlos López", "carlos.lopez@email.com", "password123", "555-0125", "Plaza Mayor 789, Zona Sur"},
	}
	users := make([]model.User, 0, len(seed))
	for _, u := range seed {
		users = append(users, model.User{
			ID: u.id, Name: u.name, Email: u.email, Password: u.password,
			Phone: u.phone, Address: u.address, Avatar: model.DefaultAvatar, CreatedAt: now,
		})
	}
	return users
}

func defaultProducts(now time.Time) []model.Product {
	seed := []struct {
		id                                               int64
		name, price, category, brand, grind, description string
		image                                            string
		sellerID                                         int64
		stock                                            int
	}{
		{1, "Mezcla Café Premium", "25.99", "Mezcla", "NEXUS", "Molido Medio",
			"Café premium de alta calidad con notas dulces y afrutadas. Perfecto para cualquier momento del día.",
			"/images/mezcla.png", 1, 50},
		{2, "Arábica Premium", "32.50", "Arábica", "Premium", "Grano Entero",
			"Café arábica de origen único con sabor suave y aromático. Cultivado en las montañas de Colombia.",
			"/images/arabica.png", 1, 30},
		{3, "Espresso Italiano", "28.75", "Espresso", "Italian", "Molido Fino",
			"Espresso tradicional italiano con cuerpo intenso y crema perfecta. Ideal para máquinas de espresso.",
			"/images/italiano.png", 1, 25},
		{4, "Café Francés", "30.00", "Tostado Oscuro", "French", "Molido Medio",
			"Tostado francés con sabor intenso y robusto. Notas ahumadas y chocolate amargo.",
			"/images/frances.png", 2, 40},
		{5, "Descafeinado Suave", "22.99", "Descafeinado", "Decaf", "Molido Medio",
			"Café descafeinado que mantiene todo el sabor original. Proceso natural sin químicos.",
			"/images/descafeinado.png", 2, 35},
		{6, "Tostado Claro", "26.50", "Tostado Claro", "Light", "Grano Entero",
			"Tostado claro con notas florales y cítricas. Acidez brillante y sabor delicado.",
			"/images/tostado_claro.png", 3, 20},
		{7, "Orgánico Premium", "35.00", "Orgánico", "Organic", "Molido Grueso",
			"Café orgánico certificado de comercio justo. Cultivado sin pesticidas ni fertilizantes químicos.",
			"/images/organico.png", 3, 15},
		{8, "Tostado Oscuro", "29.99", "Tostado Oscuro", "Dark", "Molido Fino",
			"Tostado oscuro con sabor intenso y notas ahumadas. Perfecto para los amantes del café fuerte.",
			"/images/tostado.png", 4, 45},
		{9, "Café de Taza", "24.50", "Premium", "Cup", "Molido Medio",
			"Café premium perfecto para cualquier momento del día. Equilibrio perfecto entre sabor y aroma.",
			"/images/tasa.png", 4, 60},
	}
	products := make([]model.Product, 0, len(seed))
	for _, p := range seed {
		products = append(products, model.Product{
			ID: p.id, Name: p.name, Price: decimal.RequireFromString(p.price),
			Category: p.category, Brand: p.brand, Grind: p.grind, Description: p.description,
			Image: p.image, SellerID: p.sellerID, Stock: p.stock, CreatedAt: now,
		})
	}
	return products
}
