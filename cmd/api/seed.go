package main

import (
	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// seedAccessControl creates default privileges, roles and the first admin user if they don't exist.
func seedAccessControl(db *gorm.DB, log *zap.Logger) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Warn("failed to seed privileges", zap.Error(err))
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Warn("failed to seed roles", zap.Error(err))
	}

	count, err := userRepo.Count()
	if err != nil || count > 0 {
		return
	}

	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		log.Warn("admin role missing, skipping admin user", zap.Error(err))
		return
	}

	email := "admin@hlgfitness.com"
	admin := &model.User{
		Username:   "admin",
		Email:      email,
		Name:       "Admin User",
		RoleID:     &adminRole.ID,
		IsActive:   true,
		Privileges: adminRole.Privileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword("password"); err != nil {
		log.Warn("failed to hash admin password", zap.Error(err))
		return
	}
	if err := userRepo.Create(admin); err != nil {
		log.Warn("failed to create admin user", zap.Error(err))
		return
	}
	log.Warn("default admin user created, change its password", zap.String("username", admin.Username))
}

func ptr(s string) *string { return &s }

// seedCatalog loads the demo catalog into an empty database.
func seedCatalog(db *gorm.DB, log *zap.Logger) {
	productRepo := repository.NewProductRepo(db)
	customerRepo := repository.NewCustomerRepo(db)

	if n, err := productRepo.Count(); err == nil && n == 0 {
		products := []model.Product{
			{Name: "Legging Preta", Description: "Legging preta de alta compressão, ideal para treinos intensos", Category: model.CategoryLeggings, Size: "M", Color: "Preto", Price: decimal.RequireFromString("119.90"), Stock: 2, MinStock: 5},
			{Name: "Top Esportivo", Description: "Top esportivo com suporte médio, perfeito para atividades físicas", Category: model.CategoryTops, Size: "P", Color: "Rosa", Price: decimal.RequireFromString("89.90"), Stock: 3, MinStock: 5},
			{Name: "Tênis de Corrida", Description: "Tênis leve e confortável para corridas de longa distância", Category: model.CategoryShoes, Size: "38", Color: "Cinza", Price: decimal.RequireFromString("249.90"), Stock: 1, MinStock: 3},
			{Name: "Shorts Esportivo", Description: "Shorts confortável para atividades físicas intensas", Category: model.CategoryShorts, Size: "M", Color: "Azul", Price: decimal.RequireFromString("79.90"), Stock: 15, MinStock: 5},
		}
		for i := range products {
			products[i].CreatedBy = "system"
			products[i].UpdatedBy = "system"
			if err := productRepo.Create(&products[i]); err != nil {
				log.Warn("failed to seed product", zap.String("name", products[i].Name), zap.Error(err))
			}
		}
		log.Info("seeded products", zap.Int("count", len(products)))
	}

	existing, err := customerRepo.FindAll("")
	if err != nil || len(existing) > 0 {
		return
	}
	customers := []model.Customer{
		{Name: "Maria Oliveira", Email: ptr("maria@example.com"), Phone: ptr("(11) 98765-4321"), Address: ptr("Rua das Flores, 123 - São Paulo, SP")},
		{Name: "João Silva", Email: ptr("joao@example.com"), Phone: ptr("(11) 91234-5678"), Address: ptr("Av. Paulista, 1000 - São Paulo, SP")},
		{Name: "Carla Mendes", Email: ptr("carla@example.com"), Phone: ptr("(21) 99876-5432"), Address: ptr("Rua do Sol, 456 - Rio de Janeiro, RJ")},
		{Name: "Pedro Costa", Email: ptr("pedro@example.com"), Phone: ptr("(31) 98765-1234"), Address: ptr("Rua dos Ipês, 789 - Belo Horizonte, MG")},
	}
	for i := range customers {
		customers[i].CreatedBy = "system"
		customers[i].UpdatedBy = "system"
		if err := customerRepo.Create(&customers[i]); err != nil {
			log.Warn("failed to seed customer", zap.String("name", customers[i].Name), zap.Error(err))
		}
	}
	log.Info("seeded customers", zap.Int("count", len(customers)))
}
