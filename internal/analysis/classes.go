package analysis

import (
	"strings"

	"github.com/natureobs/natureobs-analysis-service/internal/domain/entity"
)

// AnimalClasses lists every animal label the detector model can emit.
var AnimalClasses = map[string]struct{}{
	// Common pets and farm animals
	"bird": {}, "cat": {}, "dog": {}, "horse": {}, "sheep": {}, "cow": {},

	// Large mammals
	"elephant": {}, "bear": {}, "zebra": {}, "giraffe": {}, "tiger": {}, "lion": {},
	"wolf": {}, "deer": {}, "buffalo": {}, "rhinoceros": {}, "hippopotamus": {},

	// Primates
	"monkey": {}, "gorilla": {}, "chimpanzee": {}, "orangutan": {}, "panda": {},

	// Small mammals
	"rabbit": {}, "mouse": {}, "fox": {}, "raccoon": {}, "squirrel": {}, "hamster": {},
	"hedgehog": {}, "skunk": {}, "beaver": {},

	// Marine animals
	"whale": {}, "dolphin": {}, "fish": {}, "shark": {}, "seal": {}, "turtle": {},
	"octopus": {}, "starfish": {}, "crab": {},

	// Birds
	"duck": {}, "penguin": {}, "eagle": {}, "owl": {}, "parrot": {}, "swan": {},
	"peacock": {}, "chicken": {}, "turkey": {}, "goose": {},

	// Reptiles and amphibians
	"snake": {}, "lizard": {}, "frog": {}, "toad": {}, "crocodile": {}, "alligator": {},
	"iguana": {}, "chameleon": {},
}

// staticClasses are nature elements that do not move within a scene.
var staticClasses = []string{
	"tree", "mountain", "rock", "bush", "lake", "river",
	"forest", "plant", "grass", "flower", "beach", "desert",
	"waterfall", "cave", "cliff", "valley", "meadow",
}

// Categorize classifies a detector label as static or dynamic scenery.
// Unknown labels default to static.
func Categorize(label string) entity.Category {
	l := strings.ToLower(label)
	for _, s := range staticClasses {
		if strings.Contains(l, s) {
			return entity.CategoryStatic
		}
	}
	if _, ok := AnimalClasses[l]; ok {
		return entity.CategoryDynamic
	}
	for animal := range AnimalClasses {
		if strings.Contains(l, animal) {
			return entity.CategoryDynamic
		}
	}
	return entity.CategoryStatic
}

// IsAnimal reports whether the label names an animal class.
func IsAnimal(label string) bool {
	_, ok := AnimalClasses[strings.ToLower(label)]
	return ok
}
