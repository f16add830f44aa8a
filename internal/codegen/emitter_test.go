package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nyxlang/nyxc/internal/codegen"
)

func TestWriterIndentsNestedLines(t *testing.T) {
	w := codegen.NewWriter()
	w.Line("void f() {")
	w.Push()
	w.Line("int x = 1;")
	w.Push()
	w.Line("int y = 2;")
	w.Pop()
	w.Pop()
	w.Line("}")

	want := "void f() {\n    int x = 1;\n        int y = 2;\n}\n"
	assert.Equal(t, want, w.String())
}

func TestWriterRawAppendsVerbatim(t *testing.T) {
	w := codegen.NewWriter()
	w.Raw("#include <stdio.h>\n")
	w.Line("int main() { return 0; }")
	assert.Equal(t, "#include <stdio.h>\nint main() { return 0; }\n", w.String())
}
