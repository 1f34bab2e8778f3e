package handlers

import (
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/assert"

	"github.com/openlearnai/learning-service/internal/models"
)

func TestRoleFromUser(t *testing.T) {
	tests := []struct {
		name string
		user casdoorsdk.User
		want models.UserRole
	}{
		{"plain user", casdoorsdk.User{Name: "ana"}, models.RoleStudent},
		{"admin flag", casdoorsdk.User{IsAdmin: true, Tag: "teacher"}, models.RoleAdmin},
		{"teacher tag", casdoorsdk.User{Tag: "Teacher"}, models.RoleTeacher},
		{"teacher role", casdoorsdk.User{Roles: []*casdoorsdk.Role{nil, {Name: "reviewer"}, {Name: "teacher"}}}, models.RoleTeacher},
		{"other roles", casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "reviewer"}}}, models.RoleStudent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roleFromUser(&tt.user))
		})
	}
}
