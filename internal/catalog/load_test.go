package catalog_test

import (
	"context"
	"testing"

	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/stretchr/testify/require"
)

const taskDoc = `
resource: Task
attributes:
  - name: id
    type: uuid
  - name: title
    type: string
  - name: archived?
    type: boolean
    external: isArchived
  - name: tags
    type: {array: string}
  - name: metadata
    type: map
  - name: position
    type:
      tuple:
        - name: lat
          type: float
        - name: lng
          type: float
  - name: address
    type: Address
  - name: attachment
    type: Attachment
  - name: profile
    type: Profile
  - name: secret
    type: string
    public: false
calculations:
  - name: word_count
    type: integer
  - name: similar
    type: {array: Task}
    args:
      - name: limit
        type: integer
      - name: query
        type: string
        nullable: true
        external: q
  - name: summary_info
    type: Address
aggregates:
  - name: comment_count
    kind: count
    relationship: comments
relationships:
  - name: comments
    destination: Comment
    many: true
  - name: author
    destination: User
actions:
  - name: get
  - name: list
    many: true
`

const commentDoc = `
resource: Comment
attributes:
  - name: body
    type: string
relationships:
  - name: author
    destination: User
`

const userDoc = `
resource: User
attributes:
  - name: name
    type: string
relationships:
  - name: profile
    destination: Profile
actions:
  - name: get
`

const profileDoc = `
resource: Profile
embedded: true
attributes:
  - name: bio
    type: string
  - name: avatar_url
    type: string
    external: avatarUrl
`

const addressDoc = `
struct: Address
fields:
  - name: street
    type: string
  - name: city
    type: string
    external: cityName
  - name: zip
    type: string
    nullable: true
`

const imageDoc = `
struct: Image
fields:
  - name: url
    type: string
  - name: width
    type: integer
`

const attachmentDoc = `
union: Attachment
members:
  - name: link
    type: string
  - name: image
    type: Image
  - name: upload
    type: Profile
`

func loadFixture(t *testing.T) *catalog.Catalog {
	t.Helper()
	disc := catalog.NewInMemoryDiscovery([]catalog.InMemoryDocument{
		{Name: "task", Content: taskDoc},
		{Name: "comment", Content: commentDoc},
		{Name: "user", Content: userDoc},
		{Name: "profile", Content: profileDoc},
		{Name: "address", Content: addressDoc},
		{Name: "image", Content: imageDoc},
		{Name: "attachment", Content: attachmentDoc},
	})
	cat, err := catalog.Load(context.Background(), disc)
	require.NoError(t, err)
	return cat
}

func TestLoadBuildsCatalog(t *testing.T) {
	cat := loadFixture(t)

	task := cat.Resource("Task")
	require.NotNil(t, task)
	require.True(t, task.Public)
	require.Len(t, task.Attributes, 10)
	require.Len(t, task.Actions, 2)

	profile := cat.Resource("Profile")
	require.NotNil(t, profile)
	require.True(t, profile.Embedded)

	require.NotNil(t, cat.Struct("Address"))
	require.NotNil(t, cat.Union("Attachment"))
}

func TestLoadTypeLinking(t *testing.T) {
	cat := loadFixture(t)
	task := cat.Resource("Task")

	require.Equal(t, catalog.TypeKindScalar, task.Attributes["id"].Type.Kind)
	require.Equal(t, "uuid", task.Attributes["id"].Type.Named)

	tags := task.Attributes["tags"].Type
	require.True(t, tags.IsList())
	require.Equal(t, "string", tags.Elem().Named)

	require.Equal(t, catalog.TypeKindMap, task.Attributes["metadata"].Type.Kind)
	require.Empty(t, task.Attributes["metadata"].Type.Fields)

	pos := task.Attributes["position"].Type
	require.Equal(t, catalog.TypeKindTuple, pos.Kind)
	require.Len(t, pos.Fields, 2)
	require.Equal(t, "lat", pos.Fields[0].Name)

	require.Equal(t, catalog.TypeKindStruct, task.Attributes["address"].Type.Kind)
	require.Equal(t, catalog.TypeKindUnion, task.Attributes["attachment"].Type.Kind)
	require.Equal(t, catalog.TypeKindResource, task.Attributes["profile"].Type.Kind)
}

func TestLoadActionReturnDefaults(t *testing.T) {
	cat := loadFixture(t)
	task := cat.Resource("Task")

	get := task.Actions["get"]
	require.Equal(t, catalog.TypeKindResource, get.Type.Kind)
	require.Equal(t, "Task", get.Type.Named)

	list := task.Actions["list"]
	require.True(t, list.Type.IsList())
	require.Equal(t, "Task", list.Type.Elem().Named)
}

func TestLoadAggregateTypeInference(t *testing.T) {
	cat := loadFixture(t)
	agg := cat.Resource("Task").Aggregates["comment_count"]
	require.Equal(t, catalog.AggregateCount, agg.Kind)
	require.Equal(t, "integer", agg.Type.Named)
}

func TestNameResolution(t *testing.T) {
	cat := loadFixture(t)
	task := cat.Resource("Task")

	require.Equal(t, "archived?", task.ResolveName("isArchived"))
	require.Equal(t, "archived?", task.ResolveName("archived?"))
	require.Equal(t, "isArchived", task.MappedName("archived?"))
	require.Equal(t, "archived?", task.InternalName("isArchived"))
	require.Equal(t, "title", task.ResolveName("title"))

	addr := cat.Struct("Address")
	require.Equal(t, "city", addr.ResolveName("cityName"))
	require.Equal(t, "cityName", addr.MappedName("city"))

	similar := task.Calculations["similar"]
	require.Equal(t, "query", similar.ResolveArgName("q"))
	require.Equal(t, "limit", similar.ResolveArgName("limit"))
}

func TestOrderedAccessors(t *testing.T) {
	cat := loadFixture(t)
	task := cat.Resource("Task")

	attrs := task.OrderedAttributes()
	require.Equal(t, "id", attrs[0].Name)
	require.Equal(t, "title", attrs[1].Name)
	require.Equal(t, "secret", attrs[len(attrs)-1].Name)

	calcs := task.OrderedCalculations()
	require.Equal(t, "word_count", calcs[0].Name)
	require.Equal(t, "summary_info", calcs[2].Name)

	args := task.Calculations["similar"].OrderedArgs()
	require.Equal(t, "limit", args[0].Name)
	require.Equal(t, "query", args[1].Name)
}

func TestLoadViolations(t *testing.T) {
	cases := []struct {
		name string
		docs []catalog.InMemoryDocument
		want string
	}{
		{
			name: "unknown type",
			docs: []catalog.InMemoryDocument{{Name: "a", Content: `
resource: A
attributes:
  - name: x
    type: Bogus
`}},
			want: `unknown type "Bogus"`,
		},
		{
			name: "duplicate definition",
			docs: []catalog.InMemoryDocument{
				{Name: "a", Content: "resource: A\n"},
				{Name: "b", Content: "struct: A\nfields: []\n"},
			},
			want: `duplicate definition of "A"`,
		},
		{
			name: "relationship to unknown resource",
			docs: []catalog.InMemoryDocument{{Name: "a", Content: `
resource: A
relationships:
  - name: other
    destination: Missing
`}},
			want: `points at unknown resource "Missing"`,
		},
		{
			name: "aggregate over unknown relationship",
			docs: []catalog.InMemoryDocument{{Name: "a", Content: `
resource: A
aggregates:
  - name: n
    kind: count
    relationship: missing
`}},
			want: `targets unknown relationship "missing"`,
		},
		{
			name: "alias shadows internal name",
			docs: []catalog.InMemoryDocument{{Name: "a", Content: `
resource: A
attributes:
  - name: title
    type: string
  - name: label
    type: string
    external: title
`}},
			want: `external name "title" shadows another field`,
		},
		{
			name: "alias declared twice",
			docs: []catalog.InMemoryDocument{{Name: "a", Content: `
resource: A
attributes:
  - name: one
    type: string
    external: x
  - name: two
    type: string
    external: x
`}},
			want: `external name "x" declared for both`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			disc := catalog.NewInMemoryDiscovery(tc.docs)
			_, err := catalog.Load(context.Background(), disc)
			require.Error(t, err)
			var verr catalog.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}
