package render_test

import (
	"errors"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // gomega convention

	syntax "github.com/toejough/mockdelegates/delegen/run/0_syntax"
	load "github.com/toejough/mockdelegates/delegen/run/2_load"
	mock "github.com/toejough/mockdelegates/delegen/run/4_mock"
	render "github.com/toejough/mockdelegates/delegen/run/5_render"
)

func TestGo_SamePackageMock(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	unit := goMockUnit(t, &syntax.TypeDecl{
		Kind:    syntax.Interface,
		Name:    "Shape",
		Members: []syntax.Member{&syntax.Method{Name: "Area", ReturnType: syntax.TypeRef{Name: "int"}}},
	})

	got, err := render.Go(unit, render.GoOptions{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(HavePrefix("// Code generated by delegen. DO NOT EDIT.\n"))
	g.Expect(got).To(ContainSubstring("package shapes"))
	g.Expect(got).To(ContainSubstring("type MockShapeOnAreaHandler func() int"))
	g.Expect(got).To(MatchRegexp(`OnArea\s+MockShapeOnAreaHandler`))
	g.Expect(got).To(ContainSubstring("var _ Shape = (*MockShape)(nil)"))
	g.Expect(got).To(ContainSubstring("func (m *MockShape) Area() int {"))
	g.Expect(got).To(ContainSubstring("if m.OnArea == nil {"))
	g.Expect(got).To(ContainSubstring("return *new(int)"))
	g.Expect(got).To(ContainSubstring("return m.OnArea()"))
}

func TestGo_QualifiesSourcePackage(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	unit := goMockUnit(t, &syntax.TypeDecl{
		Kind: syntax.Interface,
		Name: "Store",
		Members: []syntax.Member{
			&syntax.Method{
				Name:       "Get",
				ReturnType: syntax.Tuple(syntax.TypeRef{Name: "*Item"}, syntax.TypeRef{Name: "error"}),
				Params: []syntax.Parameter{
					{Name: "ctx", Type: syntax.TypeRef{Name: "context.Context"}},
					{Name: "id", Type: syntax.TypeRef{Name: "string"}},
				},
			},
			&syntax.Method{
				Name:       "Log",
				ReturnType: syntax.Tuple(),
				Params:     []syntax.Parameter{{Name: "args", Type: syntax.TypeRef{Name: "any"}, Variadic: true}},
			},
		},
	}, syntax.Using{Path: "context"})

	got, err := render.Go(unit, render.GoOptions{
		PackageName: "shapesmock",
		PackagePath: "example.com/shapesmock",
		SourcePath:  "example.com/shapes",
		Generator:   "delegen gen",
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(HavePrefix("// Code generated by delegen gen. DO NOT EDIT.\n"))
	g.Expect(got).To(ContainSubstring("package shapesmock"))
	g.Expect(got).To(ContainSubstring(`"example.com/shapes"`))
	g.Expect(got).To(ContainSubstring(`"context"`))
	g.Expect(got).To(ContainSubstring("var _ shapes.Store = (*MockStore)(nil)"))
	g.Expect(got).To(ContainSubstring(
		"type MockStoreOnGetHandler func(ctx context.Context, id string) (*shapes.Item, error)"))
	g.Expect(got).To(ContainSubstring("return *new(*shapes.Item), *new(error)"))
	g.Expect(got).To(ContainSubstring("return m.OnGet(ctx, id)"))
	g.Expect(got).To(ContainSubstring("func (m *MockStore) Log(args ...any) {"))
	g.Expect(got).To(ContainSubstring("m.OnLog(args...)"))
}

func TestGo_GenericMock(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	unit := goMockUnit(t, &syntax.TypeDecl{
		Kind:       syntax.Interface,
		Name:       "Cache",
		TypeParams: "[K comparable, V any]",
		Members: []syntax.Member{&syntax.Method{
			Name:       "Load",
			ReturnType: syntax.Tuple(syntax.TypeRef{Name: "V"}, syntax.TypeRef{Name: "bool"}),
			Params:     []syntax.Parameter{{Name: "key", Type: syntax.TypeRef{Name: "K"}}},
		}},
	})

	got, err := render.Go(unit, render.GoOptions{SourcePath: "example.com/shapes", PackagePath: "example.com/shapes"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(ContainSubstring("type MockCacheOnLoadHandler[K comparable, V any] func(key K) (V, bool)"))
	g.Expect(got).To(ContainSubstring("type MockCache[K comparable, V any] struct"))
	g.Expect(got).To(MatchRegexp(`OnLoad\s+MockCacheOnLoadHandler\[K, V\]`))
	g.Expect(got).To(ContainSubstring("func (m *MockCache[K, V]) Load(key K) (V, bool) {"))
	g.Expect(got).NotTo(ContainSubstring("var _"))
}

func TestGo_EmbedsForeignInterfaces(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	unit := goMockUnit(t, &syntax.TypeDecl{
		Kind:    syntax.Interface,
		Name:    "Reader",
		Embeds:  []syntax.TypeRef{{Name: "io.Closer"}, {Name: "error"}},
		Members: []syntax.Member{&syntax.Method{Name: "Len", ReturnType: syntax.TypeRef{Name: "int"}}},
	}, syntax.Using{Path: "io"})

	got, err := render.Go(unit, render.GoOptions{})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(ContainSubstring(`"io"`))
	g.Expect(got).To(MatchRegexp(`type MockReader struct \{\s+io\.Closer\s+error\s+OnLen\s+MockReaderOnLenHandler`))
	g.Expect(got).To(ContainSubstring("var _ Reader = (*MockReader)(nil)"))
}

const readerSource = `package shapes

import "io"

type Reader interface {
	io.Closer
	Read(p []byte) (n int, err error)
}
`

func TestGo_MockOfEmbeddingInterfaceTypeChecks(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	src, err := load.LoadGo("reader.go", []byte(readerSource))
	g.Expect(err).NotTo(HaveOccurred())

	decl := src.Namespaces[0].Types[0]
	g.Expect(decl.Embeds).To(Equal([]syntax.TypeRef{{Name: "io.Closer"}}))

	class, err := mock.AssembleClass(decl)
	g.Expect(err).NotTo(HaveOccurred())

	unit, err := mock.AssembleUnit(src, class)
	g.Expect(err).NotTo(HaveOccurred())

	got, err := render.Go(unit, render.GoOptions{Generator: "delegen"})
	g.Expect(err).NotTo(HaveOccurred())

	fset := token.NewFileSet()
	files := make([]*ast.File, 0, 2)

	for name, text := range map[string]string{"reader.go": readerSource, "generated_MockReader.go": got} {
		file, err := parser.ParseFile(fset, name, text, 0)
		g.Expect(err).NotTo(HaveOccurred(), text)

		files = append(files, file)
	}

	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	_, err = conf.Check("shapes", fset, files, nil)
	g.Expect(err).NotTo(HaveOccurred(), got)
}

func TestGo_Unsupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		decl *syntax.TypeDecl
	}{
		{
			name: "property",
			decl: &syntax.TypeDecl{Kind: syntax.Interface, Name: "P", Members: []syntax.Member{
				&syntax.Property{Name: "X", Type: syntax.TypeRef{Name: "int"}, Accessors: []syntax.Accessor{{Kind: syntax.Get}}},
			}},
		},
		{
			name: "out parameter",
			decl: &syntax.TypeDecl{Kind: syntax.Interface, Name: "O", Members: []syntax.Member{
				&syntax.Method{
					Name: "F", ReturnType: syntax.Void(),
					Params: []syntax.Parameter{{Name: "x", Type: syntax.TypeRef{Name: "int"}, Mode: syntax.Out}},
				},
			}},
		},
		{
			name: "constructor",
			decl: &syntax.TypeDecl{Kind: syntax.AbstractClass, Name: "C", Members: []syntax.Member{
				&syntax.Constructor{Name: "C"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			unit := goMockUnit(t, tt.decl)

			_, err := render.Go(unit, render.GoOptions{})
			if !errors.Is(err, render.ErrUnsupported) {
				t.Fatalf("Go error = %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestGo_NeedsPackageName(t *testing.T) {
	t.Parallel()

	_, err := render.Go(&syntax.CompilationUnit{}, render.GoOptions{})
	if !errors.Is(err, render.ErrUnsupported) {
		t.Fatalf("Go error = %v, want ErrUnsupported", err)
	}
}

func goMockUnit(t *testing.T, decl *syntax.TypeDecl, usings ...syntax.Using) *syntax.CompilationUnit {
	t.Helper()

	src := &syntax.CompilationUnit{
		Usings:     usings,
		Namespaces: []*syntax.Namespace{{Name: "shapes", Types: []*syntax.TypeDecl{decl}}},
	}

	class, err := mock.AssembleClass(decl)
	if err != nil {
		t.Fatalf("AssembleClass: %v", err)
	}

	unit, err := mock.AssembleUnit(src, class)
	if err != nil {
		t.Fatalf("AssembleUnit: %v", err)
	}

	return unit
}
