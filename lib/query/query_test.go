package query

import (
	"testing"

	"github.com/ValentinKolb/dEntity/lib/entity"
)

func TestQueries(t *testing.T) {
	ann := entity.NewRecord("User", "u1").Set("name", "Ann")
	bob := entity.NewRecord("User", "u2").Set("name", "Bob")
	proj := entity.NewRecord("Project", "p1").Set("name", "Ann")

	testCases := []struct {
		name      string
		query     IQuery
		typeName  string
		wantType  bool
		entity    entity.Entity
		wantMatch bool
	}{
		{"AllOfType matching", OfType("User"), "User", true, ann, true},
		{"AllOfType other type", OfType("User"), "Project", false, proj, false},
		{"All", All(), "Project", true, proj, true},
		{"Where matching", Where("User", func(e entity.Entity) bool { return e.ID() == "u2" }), "User", true, bob, true},
		{"Where not matching", Where("User", func(e entity.Entity) bool { return e.ID() == "u2" }), "User", true, ann, false},
		{"ByProperty any type", ByProperty("", "name", "Ann"), "Project", true, proj, true},
		{"ByProperty typed", ByProperty("User", "name", "Ann"), "Project", false, proj, false},
		{"ByProperty missing", ByProperty("User", "email", ""), "User", true, ann, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.query.TestType(tc.typeName); got != tc.wantType {
				t.Errorf("TestType(%s): expected %v, got %v", tc.typeName, tc.wantType, got)
			}
			if got := tc.query.Test(tc.entity); got != tc.wantMatch {
				t.Errorf("Test(%s): expected %v, got %v", tc.entity.ID(), tc.wantMatch, got)
			}
		})
	}
}
