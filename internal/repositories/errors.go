package repositories

import "errors"

// ErrNotFound is returned instead of gorm.ErrRecordNotFound so callers need not import gorm.
var ErrNotFound = errors.New("record not found")
