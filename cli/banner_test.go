package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

//nolint:paralleltest // Tests modify the environment
func TestBanner(t *testing.T) {
	t.Setenv("FLOWFSM_NO_BANNER", "false")

	tests := []struct {
		name      string
		text      string
		width     int
		alignment int
		want      string
	}{
		{
			name:      "left",
			text:      "run",
			width:     7,
			alignment: AlignLeft,
			want:      "╒═════╕\n│run  │\n└─────┘\n",
		},
		{
			name:      "center",
			text:      "run",
			width:     8,
			alignment: AlignCenter,
			want:      "╒══════╕\n│ run  │\n└──────┘\n",
		},
		{
			name:      "right",
			text:      "a\nbb",
			width:     6,
			alignment: AlignRight,
			want:      "╒════╕\n│   a│\n│  bb│\n└────┘\n",
		},
		{
			name:      "truncated",
			text:      "simple_loop",
			width:     8,
			alignment: AlignLeft,
			want:      "╒══════╕\n│simpl…│\n└──────┘\n",
		},
		{name: "empty", text: "", width: 10, alignment: AlignLeft},
		{name: "too narrow", text: "x", width: 2, alignment: AlignLeft},
		{name: "bad alignment", text: "x", width: 10, alignment: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Banner(tt.text, tt.width, tt.alignment))
		})
	}
}

//nolint:paralleltest // Tests modify the environment
func TestBannerSuppressed(t *testing.T) {
	t.Setenv("FLOWFSM_NO_BANNER", "true")

	assert.Equal(t, "run\n", Banner("run", 20, AlignCenter))
	assert.Equal(t, "run\n", BannerAutoWidth("run", AlignCenter))
}

func TestDivider(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "┠"+strings.Repeat("─", 3)+"┨\n", Divider(5))
	assert.Empty(t, Divider(1))
}

func TestParseDimensions(t *testing.T) {
	t.Parallel()

	rows, cols, err := parse("24 80\n")
	assert.NoError(t, err)
	assert.Equal(t, uint(24), rows)
	assert.Equal(t, uint(80), cols)

	_, _, err = parse("garbage")
	assert.Error(t, err)

	_, _, err = parse("x 80")
	assert.Error(t, err)
}

func TestSelectOneEmpty(t *testing.T) {
	t.Parallel()

	_, err := SelectOne("workflow", nil)
	assert.ErrorIs(t, err, ErrNoChoices)
}
