package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matzehuels/blocktower/pkg/classify"
	"github.com/matzehuels/blocktower/pkg/decomp"
)

// sized builds a classifier with classes of the given sizes.
func sized(kind classify.Kind, sizes ...int) *classify.Classifier {
	c := &classify.Classifier{Kind: kind, Name: "sized"}
	for k, s := range sizes {
		c.ClassNames = append(c.ClassNames, "")
		c.ClassDescriptions = append(c.ClassDescriptions, "")
		c.Roles = append(c.Roles, classify.RoleAny)
		for range s {
			c.ClassOf = append(c.ClassOf, k)
		}
	}
	return c
}

func TestSubsetGCDs(t *testing.T) {
	assert.Equal(t, []int{2, 1, 3, 1}, subsetGCDs([]int{4, 6, 9}))
	assert.Empty(t, subsetGCDs([]int{7}))
	assert.Equal(t, 6, gcd(12, 18))
	assert.Equal(t, 5, gcd(0, 5))
}

func TestMedianRowLength(t *testing.T) {
	idx := decomp.NewIndex(newProblem(t, 4, []int{0}, []int{0, 1, 2}, []int{1, 2}, []int{0, 1, 2, 3}), 0)
	assert.Equal(t, 2, medianRowLength(idx), "lower median of 1 2 3 4")
}

func TestNewCandidates(t *testing.T) {
	// Rows of length two over eight variables vote for 8/2.
	idx := decomp.NewIndex(newProblem(t, 8, []int{0, 1}, []int{2, 3}, []int{4, 5}, []int{6, 7}), 0)
	conss := []*classify.Classifier{sized(classify.Conss, 4, 6)}
	vars := []*classify.Classifier{sized(classify.Vars, 3, 3)}

	t.Run("with subsets", func(t *testing.T) {
		c := newCandidates(idx, conss, vars, 18)
		assert.Equal(t, []Candidate{
			{NBlocks: 3, Votes: 3},
			{NBlocks: 4, Votes: 2},
			{NBlocks: 2, Votes: 1},
			{NBlocks: 6, Votes: 1},
		}, c.list())

		c.addUser(6)
		c.addUser(6)
		c.addUser(0)
		got := c.list()
		assert.Equal(t, Candidate{NBlocks: 6, Votes: 1, User: true}, got[0])
		assert.Len(t, got, 4)
		assert.Equal(t, 3, got[1].NBlocks)
	})

	t.Run("too many classes for subsets", func(t *testing.T) {
		c := newCandidates(idx, conss, vars, 1)
		assert.Equal(t, []Candidate{
			{NBlocks: 3, Votes: 2},
			{NBlocks: 4, Votes: 2},
			{NBlocks: 6, Votes: 1},
		}, c.list())
	})
}

func TestPoolCandidates(t *testing.T) {
	cfg := testConfig()
	cfg.UserCandidates = []int{5}
	p := newPool(t, cfg, newProblem(t, 4, diagonal(4)...))
	p.AddUserCandidate(7)

	got := p.CandidatesNBlocks()
	assert.Equal(t, Candidate{NBlocks: 5, User: true}, got[0])
	assert.Equal(t, Candidate{NBlocks: 7, User: true}, got[1])
	for _, c := range got[2:] {
		assert.False(t, c.User)
	}
}
