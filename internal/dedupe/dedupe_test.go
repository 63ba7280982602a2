package dedupe

import (
	"reflect"
	"testing"
)

func TestAssignUnique(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []string
	}{
		{
			name: "no duplicates",
			keys: []string{"1", "2", "3A"},
			want: []string{"1", "2", "3A"},
		},
		{
			name: "interleaved duplicates",
			keys: []string{"12", "12", "7", "12"},
			want: []string{"12", "12-2", "7", "12-3"},
		},
		{
			name: "multiple duplicate groups",
			keys: []string{"4", "4", "9", "9", "9"},
			want: []string{"4", "4-2", "9", "9-2", "9-3"},
		},
		{
			name: "suffix already present in batch",
			keys: []string{"12", "12-2", "12"},
			want: []string{"12", "12-2", "12-3"},
		},
		{
			name: "natural key collides with assigned suffix",
			keys: []string{"12", "12", "12-2"},
			want: []string{"12", "12-2", "12-2-2"},
		},
		{
			name: "empty batch",
			keys: []string{},
			want: []string{},
		},
		{
			name: "single key",
			keys: []string{"22B"},
			want: []string{"22B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignUnique(tt.keys)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AssignUnique(%v) = %v, want %v", tt.keys, got, tt.want)
			}
		})
	}
}

func TestAssignUniqueDeterministic(t *testing.T) {
	keys := []string{"5", "5", "5", "6", "5"}

	first := AssignUnique(keys)
	second := AssignUnique(keys)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("AssignUnique not deterministic: %v vs %v", first, second)
	}
}

func TestAssignUniqueDoesNotMutateInput(t *testing.T) {
	keys := []string{"12", "12"}
	AssignUnique(keys)

	if keys[1] != "12" {
		t.Errorf("input slice was mutated: %v", keys)
	}
}
