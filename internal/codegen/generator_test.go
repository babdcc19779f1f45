package codegen_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/fieldplan/internal/catalog"
	"github.com/hanpama/fieldplan/internal/codegen"
	"github.com/hanpama/fieldplan/internal/naming"
)

const fixtureDocs = `
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
          external: latitude
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
---
resource: Comment
attributes:
  - name: body
    type: string
relationships:
  - name: author
    destination: User
---
resource: User
attributes:
  - name: name
    type: string
relationships:
  - name: profile
    destination: Profile
---
resource: Profile
embedded: true
attributes:
  - name: bio
    type: string
  - name: avatar_url
    type: string
    external: avatarUrl
  - name: motto
    type: string
    nullable: true
---
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
---
struct: Image
fields:
  - name: url
    type: string
  - name: width
    type: integer
---
union: Attachment
members:
  - name: link
    type: string
  - name: image
    type: Image
  - name: upload
    type: Profile
`

func fixtureCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	disc := catalog.NewInMemoryDiscovery([]catalog.InMemoryDocument{
		{Name: "fixture", Content: fixtureDocs},
	})
	cat, err := catalog.Load(context.Background(), disc)
	require.NoError(t, err)
	return cat
}

func TestGenerateSchemaText(t *testing.T) {
	gen := codegen.New(fixtureCatalog(t), naming.PolicyCamel)
	text, err := gen.Generate(context.Background(), []string{"Task"}, nil)
	require.NoError(t, err)

	require.Contains(t, text,
		`export type TaskFieldName = "id" | "title" | "isArchived" | "tags" | "metadata" | "wordCount" | "commentCount";`)

	for _, line := range []string{
		"export type TaskSchema = {",
		"  __primitiveFields: TaskFieldName;",
		"  id: string;",
		"  isArchived: boolean;",
		"  tags: Array<string>;",
		"  metadata: Record<string, unknown>;",
		"  position: { latitude: number; lng: number };",
		"  address: AddressSchema;",
		`  attachment: { __type: "Union"; __array: false; __resource: AttachmentSchema; __primitiveFields: AttachmentPrimitiveMember };`,
		`  profile: { __type: "Resource"; __array: false; __resource: ProfileSchema };`,
		"  wordCount: number;",
		`  similar: { __type: "ComplexCalculation"; __array: true; __resource: TaskSchema; __args: { limit: number; q?: string } };`,
		`  summaryInfo: { __type: "ComplexCalculation"; __array: false; __returnType: AddressSchema };`,
		"  commentCount: number;",
		`  comments: { __type: "Relationship"; __array: true; __resource: CommentSchema };`,
		`  author: { __type: "Relationship"; __array: false; __resource: UserSchema };`,
	} {
		require.Contains(t, text, line+"\n")
	}

	// Private fields never leak.
	require.NotContains(t, text, "secret")
}

func TestGenerateStructAndUnionText(t *testing.T) {
	gen := codegen.New(fixtureCatalog(t), naming.PolicyCamel)
	text, err := gen.Generate(context.Background(), []string{"Task"}, nil)
	require.NoError(t, err)

	for _, line := range []string{
		"export type AddressSchema = {",
		"  street: string;",
		"  cityName: string;",
		"  zip: string | null;",
		`export type AttachmentPrimitiveMember = "link";`,
		"export type AttachmentSchema = {",
		"  image?: ImageSchema | null;",
		"  upload?: ProfileSchema | null;",
	} {
		require.Contains(t, text, line)
	}
}

func TestGenerateInputSchema(t *testing.T) {
	gen := codegen.New(fixtureCatalog(t), naming.PolicyCamel)
	text, err := gen.Generate(context.Background(), []string{"Task"}, nil)
	require.NoError(t, err)

	// Only embedded resources get a write-side schema; nullable fields
	// turn optional.
	require.Contains(t, text, "export type ProfileInputSchema = {")
	require.Contains(t, text, "  bio: string;\n  avatarUrl: string;\n  motto?: string | null;\n};")
	require.NotContains(t, text, "TaskInputSchema")
}

func TestGenerateOneDefinitionPerType(t *testing.T) {
	// Profile is reachable through Task.profile, Task.author -> User
	// -> Profile and Attachment.upload; it must render exactly once.
	gen := codegen.New(fixtureCatalog(t), naming.PolicyCamel)
	text, err := gen.Generate(context.Background(), []string{"Task"}, nil)
	require.NoError(t, err)

	require.Equal(t, 1, strings.Count(text, "export type ProfileSchema = {"))
	require.Equal(t, 1, strings.Count(text, "export type TaskSchema = {"))
	require.Equal(t, 1, strings.Count(text, "export type AddressSchema = {"))
}

func TestGenerateDeterministic(t *testing.T) {
	gen := codegen.New(fixtureCatalog(t), naming.PolicyCamel)
	first, err := gen.Generate(context.Background(), []string{"Task"}, nil)
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), []string{"Task"}, nil)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestGenerateAllowList(t *testing.T) {
	gen := codegen.New(fixtureCatalog(t), naming.PolicyCamel)
	text, err := gen.Generate(context.Background(), []string{"Task"}, []string{"Task", "Comment"})
	require.NoError(t, err)

	// Disallowed resources disappear along with every field whose type
	// would leak them.
	require.NotContains(t, text, "UserSchema")
	require.NotContains(t, text, "ProfileSchema")
	require.NotContains(t, text, "  author:")
	require.NotContains(t, text, "  profile:")
	require.NotContains(t, text, "  upload?:")
	require.Contains(t, text, `  comments: { __type: "Relationship"; __array: true; __resource: CommentSchema };`)
	require.Contains(t, text, "  image?: ImageSchema | null;")
}

func TestGenerateRootErrors(t *testing.T) {
	gen := codegen.New(fixtureCatalog(t), naming.PolicyCamel)

	_, err := gen.Generate(context.Background(), []string{"Nope"}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown root resource")

	_, err = gen.Generate(context.Background(), []string{"Task"}, []string{"Comment"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not in the allow-list")
}

func TestGenerateNamingPolicies(t *testing.T) {
	gen := codegen.New(fixtureCatalog(t), naming.PolicySnake)
	text, err := gen.Generate(context.Background(), []string{"Task"}, nil)
	require.NoError(t, err)
	require.Contains(t, text, "  word_count: number;")
	// Declared aliases win over the policy's own formatting.
	require.Contains(t, text, "  isArchived: boolean;")

	gen = codegen.New(fixtureCatalog(t), naming.PolicyPascal)
	text, err = gen.Generate(context.Background(), []string{"Task"}, nil)
	require.NoError(t, err)
	require.Contains(t, text, "  WordCount: number;")
}
