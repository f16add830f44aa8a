package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyxlang/nyxc/internal/codegen"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "leaf", codegen.Join("", "leaf"))
	assert.Equal(t, "pkg.leaf", codegen.Join("pkg", "leaf"))
	assert.Equal(t, "pkg.nested.leaf", codegen.Join("pkg.nested", "leaf"))
}

func TestMangle(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"core_root", "core", "_"},
		{"core_prefixed", "core.io.open", "io_open"},
		{"dotted_path", "app.util.helpers", "app_util_helpers"},
		{"pointer_type", "app.Ptr*", "app_PtrP"},
		{"parenthesized", "app.fn(x)", "app_fn_x_"},
		{"space", "app.my name", "app_my_name"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, codegen.Mangle(tc.input))
		})
	}
}
