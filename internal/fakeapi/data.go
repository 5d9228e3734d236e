package fakeapi

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
)

// Fixture category ids
const (
	Animals types.CategoryID = 1
	Food    types.CategoryID = 2
	Weather types.CategoryID = 3
	Mammals types.CategoryID = 4
	Birds   types.CategoryID = 5
	Fruit   types.CategoryID = 6
	Cats    types.CategoryID = 7
)

// DotIcons is the number of "dot" icons, enough for two pages at the
// default page size
const DotIcons = 150

func ptr(id types.CategoryID) *types.CategoryID { return &id }

func (s *Server) seed() {
	for _, c := range []types.Category{
		{ID: Animals, Name: "Animals"},
		{ID: Food, Name: "Food"},
		{ID: Weather, Name: "Weather"},
		{ID: Mammals, Name: "Mammals", Parent: ptr(Animals)},
		{ID: Birds, Name: "Birds", Parent: ptr(Animals)},
		{ID: Fruit, Name: "Fruit", Parent: ptr(Food)},
		{ID: Cats, Name: "Cats", Parent: ptr(Mammals)},
	} {
		s.categories[c.ID] = c
	}

	words := []struct {
		word     string
		category *types.CategoryID
	}{
		{"cat", ptr(Cats)},
		{"kitten", ptr(Cats)},
		{"lion", ptr(Cats)},
		{"dog", ptr(Mammals)},
		{"horse", ptr(Mammals)},
		{"eagle", ptr(Birds)},
		{"sparrow", ptr(Birds)},
		{"apple", ptr(Fruit)},
		{"banana", ptr(Fruit)},
		{"bread", ptr(Food)},
		{"rain", ptr(Weather)},
		{"snow", ptr(Weather)},
		{"sun", ptr(Weather)},
		{"alphabet", nil},
	}
	var id resource.ID = 1
	for _, w := range words {
		s.icons = append(s.icons, types.Icon{
			ID:       id,
			Word:     w.word,
			Image:    "/media/icons/" + w.word + ".png",
			Category: w.category,
		})
		id++
	}
	for i := 1; i <= DotIcons; i++ {
		s.icons = append(s.icons, types.Icon{
			ID:    id,
			Word:  fmt.Sprintf("dot %03d", i),
			Image: fmt.Sprintf("/media/icons/dot-%03d.png", i),
		})
		id++
	}

	s.posts[1] = types.Post{
		ID:      1,
		Title:   "Welcome",
		Content: `<p>Icons for <b>every</b> word.</p><script>alert(1)</script>`,
		Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Updated: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	s.comments[1] = types.Comment{ID: 1, Post: 1, Content: "First!"}

	s.dictionary["cat"] = []byte(`[{"meta":{"id":"cat:1","uuid":"c1","stems":["cat","cats"],"offensive":false},` +
		`"hwi":{"hw":"cat","prs":[{"mw":"ˈkat","sound":{"audio":"cat00001"}}]},"fl":"noun",` +
		`"shortdef":["a carnivorous mammal long domesticated as a pet"]}]`)
	s.dictionary["apple"] = []byte(`[{"meta":{"id":"apple","uuid":"a1","stems":["apple","apples"],"offensive":false},` +
		`"hwi":{"hw":"ap*ple","prs":[{"mw":"ˈa-pəl","sound":{"audio":"apple001"}}]},"fl":"noun",` +
		`"shortdef":["the fleshy usually rounded red, yellow, or green edible pome fruit"]}]`)
	s.dictionary["kitten"] = []byte(`[{"meta":{"id":"kitten","uuid":"k1","stems":["kitten"],"offensive":false},` +
		`"hwi":{"hw":"kit*ten"},"fl":"noun","shortdef":["a young cat"]}]`)
}
