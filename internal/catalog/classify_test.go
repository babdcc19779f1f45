package catalog_test

import (
	"testing"

	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cat := loadFixture(t)
	task := cat.Resource("Task")

	cases := []struct {
		field string
		want  catalog.Classification
	}{
		{"id", catalog.ClassAttribute},
		{"title", catalog.ClassAttribute},
		{"tags", catalog.ClassAttribute},
		{"metadata", catalog.ClassAttribute},
		{"position", catalog.ClassTuple},
		{"address", catalog.ClassTypedStruct},
		{"attachment", catalog.ClassUnionAttribute},
		{"profile", catalog.ClassEmbeddedResource},
		{"word_count", catalog.ClassCalculation},
		{"similar", catalog.ClassCalculationWithArgs},
		{"summary_info", catalog.ClassCalculationComplex},
		{"comment_count", catalog.ClassAggregate},
		{"comments", catalog.ClassRelationship},
		{"author", catalog.ClassRelationship},
		{"bogus", catalog.ClassNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			require.Equal(t, tc.want, cat.Classify(task, tc.field))
		})
	}
}

func TestClassifyResolvesAliases(t *testing.T) {
	cat := loadFixture(t)
	task := cat.Resource("Task")

	// Both spellings of an aliased field classify identically.
	require.Equal(t, cat.Classify(task, "archived?"), cat.Classify(task, "isArchived"))
	require.Equal(t, catalog.ClassAttribute, cat.Classify(task, "isArchived"))
}

func TestNeedsFieldSelection(t *testing.T) {
	cat := loadFixture(t)
	task := cat.Resource("Task")

	require.False(t, cat.NeedsFieldSelection(task.Attributes["id"].Type))
	require.False(t, cat.NeedsFieldSelection(task.Attributes["tags"].Type))
	require.False(t, cat.NeedsFieldSelection(task.Attributes["metadata"].Type))
	require.True(t, cat.NeedsFieldSelection(task.Attributes["position"].Type))
	require.True(t, cat.NeedsFieldSelection(task.Attributes["address"].Type))
	require.True(t, cat.NeedsFieldSelection(task.Attributes["attachment"].Type))
	require.True(t, cat.NeedsFieldSelection(task.Attributes["profile"].Type))
}

func TestDescriptorOf(t *testing.T) {
	cat := loadFixture(t)
	task := cat.Resource("Task")

	d := cat.DescriptorOf(task.Actions["get"].Type)
	require.Equal(t, catalog.DescriptorResource, d.Kind)
	require.Equal(t, "Task", d.Resource.Name)
	require.False(t, d.IsArray())

	d = cat.DescriptorOf(task.Actions["list"].Type)
	require.Equal(t, catalog.DescriptorResourceArray, d.Kind)
	require.Equal(t, "Task", d.Resource.Name)
	require.True(t, d.IsArray())

	d = cat.DescriptorOf(task.Attributes["title"].Type)
	require.Equal(t, catalog.DescriptorPrimitive, d.Kind)

	d = cat.DescriptorOf(task.Attributes["tags"].Type)
	require.Equal(t, catalog.DescriptorPrimitiveArray, d.Kind)
	require.Equal(t, "string", d.Type.Named)

	d = cat.DescriptorOf(catalog.AnyType())
	require.Equal(t, catalog.DescriptorAny, d.Kind)

	// A struct reference that shadows a resource name resolves to the
	// resource descriptor.
	d = cat.DescriptorOf(catalog.StructType("Profile"))
	require.Equal(t, catalog.DescriptorResource, d.Kind)
	require.Equal(t, "Profile", d.Resource.Name)

	// Nested arrays collapse to the element shape.
	d = cat.DescriptorOf(catalog.ListType(catalog.ListType(catalog.ResourceType("Task"))))
	require.Equal(t, catalog.DescriptorResourceArray, d.Kind)
}
