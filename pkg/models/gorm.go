package models

func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&User{},
		&Group{},
		&Document{},
		&DocumentVersion{},
		&Grant{},
		&ShareLink{},
		&QRLink{},
		&AuditLog{},
	}
}
