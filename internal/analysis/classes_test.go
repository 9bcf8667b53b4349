package analysis

import (
	"testing"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		label string
		want  entity.Category
	}{
		{"bear", entity.CategoryDynamic},
		{"Bear", entity.CategoryDynamic},
		{"tree", entity.CategoryStatic},
		{"pine tree", entity.CategoryStatic},
		{"grizzly bear", entity.CategoryDynamic},
		{"fire hydrant", entity.CategoryStatic}, // unknown defaults to static
		{"", entity.CategoryStatic},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Categorize(c.label), "label %q", c.label)
	}
}

func TestIsAnimal(t *testing.T) {
	assert.True(t, IsAnimal("bear"))
	assert.True(t, IsAnimal("Owl"))
	assert.False(t, IsAnimal("tree"))
	assert.False(t, IsAnimal("car"))
}
