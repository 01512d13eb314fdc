package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestComputePercent(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		total *int
		want  float64
	}{
		{"quarter", 50, intPtr(200), 25},
		{"unknown total", 10, nil, 0},
		{"zero total", 10, intPtr(0), 0},
		{"first page", 0, intPtr(120), 0},
		{"finished", 120, intPtr(120), 100},
		{"past the end", 130, intPtr(120), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputePercent(tt.page, tt.total), 0.0001)
		})
	}
}

func TestUserCaller(t *testing.T) {
	var nilUser *User
	assert.Nil(t, nilUser.Caller())

	semester := 3
	u := &User{CurrentSemester: &semester, Department: "CS"}
	u.ID = 7
	c := u.Caller()
	assert.Equal(t, uint(7), c.ID)
	assert.Equal(t, 3, *c.CurrentSemester)
	assert.Equal(t, "CS", c.Department)
}
