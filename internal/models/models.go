package models

// All 需要自动迁移的表
func All() []interface{} {
	return []interface{}{
		&User{}, &Account{}, &Trade{}, &AccountHistory{}, &JournalNote{}, &Playbook{},
	}
}
