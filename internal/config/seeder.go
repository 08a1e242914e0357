package config

import (
	"log"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/pkg/password"

	"gorm.io/gorm"
)

// Fixed ID so clients and scripts can target the Bugaba branch directly
const sucursalBugabaID = "e16de67c-f755-47e0-ab1b-ee6b424c2947"

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders. Each step is idempotent, re-running on an
// already seeded database changes nothing.
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedSucursales(); err != nil {
		return err
	}
	if err := s.seedUsuarios(); err != nil {
		return err
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedSucursales seeds the two Chiriquí branches
func (s *Seeder) seedSucursales() error {
	sucursales := []models.Sucursal{
		{
			ID:        sucursalBugabaID,
			Codigo:    "S01",
			Nombre:    "Sucursal Bugaba",
			Direccion: "Avenida Central, Bugaba",
			Telefono:  "+507 770-1234",
			Provincia: "Chiriquí",
			Pais:      "Panamá",
			Gerente:   "Ana María González",
			Activa:    true,
		},
		{
			Codigo:    "S02",
			Nombre:    "Sucursal David",
			Direccion: "Calle Central, David",
			Telefono:  "+507 775-5678",
			Provincia: "Chiriquí",
			Pais:      "Panamá",
			Gerente:   "Carlos Eduardo Mendoza",
			Activa:    true,
		},
	}

	for i := range sucursales {
		var count int64
		s.db.Model(&models.Sucursal{}).Where("codigo = ?", sucursales[i].Codigo).Count(&count)
		if count > 0 {
			continue
		}

		if err := s.db.Create(&sucursales[i]).Error; err != nil {
			return err
		}
		log.Printf("🌱 Branch seeded: %s (%s)", sucursales[i].Nombre, sucursales[i].Codigo)
	}

	return nil
}

// seedUsuarios seeds one admin, one manager and one employee per branch.
// Default password is for development, rotate it before going live.
func (s *Seeder) seedUsuarios() error {
	sucursalIDs, err := s.sucursalIDsByCodigo("S01", "S02")
	if err != nil {
		return err
	}

	hashedPassword, err := password.Hash("admin123")
	if err != nil {
		return err
	}

	usuarios := []struct {
		codigo   string
		nombre   string
		apellido string
		email    string
		rol      string
		sucursal string
	}{
		{"ADM001", "José", "Serrano", "admin.bugaba@financepro.com", models.RolAdmin, "S01"},
		{"MGR001", "Ana María", "González", "gerente.bugaba@financepro.com", models.RolGerente, "S01"},
		{"EMP001", "José Luis", "Herrera", "empleado.bugaba@financepro.com", models.RolEmpleado, "S01"},
		{"ADM002", "Carlos", "Mendoza", "admin.david@financepro.com", models.RolAdmin, "S02"},
		{"MGR002", "María Elena", "Rodríguez", "gerente.david@financepro.com", models.RolGerente, "S02"},
		{"EMP002", "Roberto", "Castillo", "empleado.david@financepro.com", models.RolEmpleado, "S02"},
	}

	for _, u := range usuarios {
		var count int64
		s.db.Model(&models.Usuario{}).Where("codigo_empleado = ?", u.codigo).Count(&count)
		if count > 0 {
			continue
		}

		usuario := &models.Usuario{
			CodigoEmpleado: u.codigo,
			Nombre:         u.nombre,
			Apellido:       u.apellido,
			Email:          u.email,
			HashedPassword: hashedPassword,
			Rol:            u.rol,
			SucursalID:     sucursalIDs[u.sucursal],
			Activo:         true,
		}
		if err := s.db.Create(usuario).Error; err != nil {
			return err
		}

		// Mirror the principal email so every login email lives in one table
		if err := s.seedEmail(usuario.ID, usuario.Email, true); err != nil {
			return err
		}

		log.Printf("🌱 User seeded: %s (%s, %s)", usuario.Email, u.codigo, u.rol)
	}

	// Secondary login email for the Bugaba admin
	var admin models.Usuario
	if err := s.db.Where("codigo_empleado = ?", "ADM001").First(&admin).Error; err == nil {
		if err := s.seedEmail(admin.ID, "jserrano@financepro.com", false); err != nil {
			return err
		}
	}

	return nil
}

// seedEmail inserts a usuario_emails row unless the address already exists
func (s *Seeder) seedEmail(usuarioID, email string, principal bool) error {
	var count int64
	s.db.Model(&models.UsuarioEmail{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil
	}

	return s.db.Create(&models.UsuarioEmail{
		UsuarioID:   usuarioID,
		Email:       email,
		EsPrincipal: principal,
		Activo:      true,
	}).Error
}

// sucursalIDsByCodigo maps branch codes to their IDs
func (s *Seeder) sucursalIDsByCodigo(codigos ...string) (map[string]string, error) {
	var sucursales []models.Sucursal
	if err := s.db.Where("codigo IN ?", codigos).Find(&sucursales).Error; err != nil {
		return nil, err
	}

	ids := make(map[string]string, len(sucursales))
	for _, sucursal := range sucursales {
		ids[sucursal.Codigo] = sucursal.ID
	}
	return ids, nil
}
