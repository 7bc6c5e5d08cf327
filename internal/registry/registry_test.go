package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		option string
		name   string
		arity  int
		flags  Flags
	}{
		{"-resize", "resize", 1, SimpleOperator},
		{"+resize", "resize", 1, SimpleOperator},
		{"-pointsize", "pointsize", 1, Setting},
		{"-colorspace", "colorspace", 1, Setting | SimpleOperator},
		{"-swap", "swap", 1, ListOperator},
		{"(", "(", 0, NoImageOperator},
		{"}", "}", 0, NoImageOperator},
		{"-annotate", "annotate", 2, SimpleOperator | AlwaysInterpolate},
		{"-read", "read", 1, NoImageOperator | NeverInterpolate},
		{"-matte", "matte", 0, Deprecated},
		{"-bench", "bench", 1, Genesis},
		{"-script", "script", 1, Special},
		{"-Resize", "resize", 1, SimpleOperator},
	}
	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			opt, ok := Lookup(tt.option)
			require.True(t, ok)
			require.Equal(t, tt.name, opt.Name)
			require.Equal(t, tt.arity, opt.Arity)
			require.True(t, opt.Flags.Has(tt.flags), "flags %s missing %s", opt.Flags, tt.flags)
		})
	}

	_, ok := Lookup("-no-such-option")
	require.False(t, ok)
	_, ok = Lookup("")
	require.False(t, ok)
}

func TestArity(t *testing.T) {
	tests := []struct {
		option string
		want   int
	}{
		{"-clone", 1},
		{"+clone", 0},
		{"-fill", 1},
		{"+fill", 0},
		{"+repage", 0},
		{"-repage", 1},
		{"+swap", 0},
		{"+delete", 0},
		{"+insert", 0},
		{"+duplicate", 0},
		{"+size", 0},
		{"+gravity", 0},
		{"-set", 2},
		{"+set", 1},
		{"+define", 1},
		{"+write", 1},
		{"+level", 1},
		{"+noise", 1},
		{"(", 0},
		{"-no-such-option", 0},
	}
	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			require.Equal(t, tt.want, Arity(tt.option))
		})
	}

	blur, ok := Lookup("+blur")
	require.True(t, ok)
	require.True(t, blur.PlusDeprecated)
	require.Equal(t, 0, blur.ArityOf(Disable))
	require.Equal(t, 1, blur.ArityOf(Enable))
}

func TestPolarityOf(t *testing.T) {
	require.Equal(t, Enable, PolarityOf("-fill"))
	require.Equal(t, Disable, PolarityOf("+fill"))
	require.Equal(t, Enable, PolarityOf("("))
	require.Equal(t, "+", Disable.String())
}

func TestIsOption(t *testing.T) {
	require.True(t, IsOption("-resize"))
	require.True(t, IsOption("+swap"))
	require.True(t, IsOption("("))
	require.True(t, IsOption("--"))
	require.False(t, IsOption("-"))
	require.False(t, IsOption("-5"))
	require.False(t, IsOption("image.png"))
}

func TestAll_SortedAndUnique(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].Name, all[i].Name)
	}
}

func TestParseVocabulary(t *testing.T) {
	got, ok := Parse("compose", "dst-over")
	require.True(t, ok)
	require.Equal(t, "DstOver", got)

	got, ok = Parse("gravity", "SOUTHEAST")
	require.True(t, ok)
	require.Equal(t, "SouthEast", got)

	_, ok = Parse("colorspace", "Rainbow")
	require.False(t, ok)
	_, ok = Parse("no-such-list", "x")
	require.False(t, ok)

	words, ok := Vocabulary("metric")
	require.True(t, ok)
	require.Contains(t, words, "RMSE")
	require.Contains(t, Vocabularies(), "layers")
}
