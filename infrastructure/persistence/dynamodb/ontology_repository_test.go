package dynamodb

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"ontology-backend/domain/health"
	"ontology-backend/domain/ontology"
	apperrors "ontology-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDynamo keeps tables in memory and pages scans two items at a time.
type fakeDynamo struct {
	mu       sync.Mutex
	tables   map[string]map[string]map[string]types.AttributeValue
	scanErr  map[string]error
	pageSize int
	scans    int
}

func newFake() *fakeDynamo {
	return &fakeDynamo{
		tables:   map[string]map[string]map[string]types.AttributeValue{},
		scanErr:  map[string]error{},
		pageSize: 2,
	}
}

func (f *fakeDynamo) put(t *testing.T, table string, v any) {
	t.Helper()
	item, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tables[table] == nil {
		f.tables[table] = map[string]map[string]types.AttributeValue{}
	}
	f.tables[table][item["id"].(*types.AttributeValueMemberS).Value] = item
}

func keyOf(key map[string]types.AttributeValue) string {
	return key["id"].(*types.AttributeValueMemberS).Value
}

func conditionFailed() error {
	return &smithy.GenericAPIError{Code: "ConditionalCheckFailedException", Message: "The conditional request failed"}
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	table := aws.ToString(in.TableName)
	if err := f.scanErr[table]; err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(f.tables[table]))
	for id := range f.tables[table] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if in.ExclusiveStartKey != nil {
		last := keyOf(in.ExclusiveStartKey)
		start = sort.SearchStrings(ids, last) + 1
	}
	end := start + f.pageSize
	if end > len(ids) {
		end = len(ids)
	}

	out := &dynamodb.ScanOutput{Count: int32(end - start)}
	if in.Select != types.SelectCount {
		for _, id := range ids[start:end] {
			out.Items = append(out.Items, f.tables[table][id])
		}
	}
	if end < len(ids) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: ids[end-1]}}
	}
	return out, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.tables[aws.ToString(in.TableName)][keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.ToString(in.TableName)
	if f.tables[table] == nil {
		f.tables[table] = map[string]map[string]types.AttributeValue{}
	}
	f.tables[table][keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

// UpdateItem understands the "SET #a = :a, ..." form the expression builder emits.
func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.tables[aws.ToString(in.TableName)][keyOf(in.Key)]
	if !ok {
		return nil, conditionFailed()
	}
	clauses := strings.TrimPrefix(strings.TrimSpace(aws.ToString(in.UpdateExpression)), "SET ")
	for _, clause := range strings.Split(clauses, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(clause), " = ")
		if !found {
			return nil, errors.New("unsupported update expression")
		}
		item[in.ExpressionAttributeNames[name]] = in.ExpressionAttributeValues[value]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := aws.ToString(in.TableName)
	id := keyOf(in.Key)
	if _, ok := f.tables[table][id]; !ok {
		return nil, conditionFailed()
	}
	delete(f.tables[table], id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func newRepo(f *fakeDynamo) *OntologyRepository {
	return NewOntologyRepository(f, "", zap.NewNop())
}

func TestScanNodes_ReadsEveryPage(t *testing.T) {
	f := newFake()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		f.put(t, "core-ontology-node", ontology.Node{ID: id, Name: strings.ToUpper(id), Type: "object"})
	}

	nodes, err := newRepo(f).ScanNodes(context.Background())
	require.NoError(t, err)
	assert.Len(t, nodes, 5)
	assert.Equal(t, 3, f.scans)
}

func TestScanNodes_PropertiesSurvive(t *testing.T) {
	f := newFake()
	f.put(t, "core-ontology-node", ontology.Node{
		ID:   "a",
		Name: "A",
		Properties: ontology.Properties{
			"dataSource": "orders",
			"indexes":    []any{map[string]any{"hashKey": "name"}},
		},
	})

	nodes, err := newRepo(f).ScanNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	ds, ok := nodes[0].Properties.DataSource()
	assert.True(t, ok)
	assert.Equal(t, "orders", ds)
	assert.True(t, nodes[0].Properties.HasIndexOn("name"))
}

func TestPutNode_EmptyPropertiesStayPresent(t *testing.T) {
	f := newFake()
	repo := newRepo(f)
	ctx := context.Background()

	require.NoError(t, repo.PutNode(ctx, ontology.Node{ID: "bare", Name: "Bare", Properties: ontology.Properties{}}))
	require.NoError(t, repo.PutNode(ctx, ontology.Node{ID: "none", Name: "None"}))

	bare, err := repo.GetNode(ctx, "bare")
	require.NoError(t, err)
	require.NotNil(t, bare.Properties)
	assert.Empty(t, bare.Properties)

	issues := health.SchemaIssues([]ontology.Node{*bare})
	require.Len(t, issues, 3)
	assert.Equal(t, health.IssueMissingSchema, issues[0].Issue)
	assert.Equal(t, health.IssueMissingDataSource, issues[1].Issue)
	assert.Equal(t, health.IssueMissingPrimaryKey, issues[2].Issue)

	none, err := repo.GetNode(ctx, "none")
	require.NoError(t, err)
	assert.Nil(t, none.Properties)
}

func TestScan_FailureMapsToDatabaseError(t *testing.T) {
	f := newFake()
	f.scanErr["core-ontology-edge"] = &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "missing"}

	_, err := newRepo(f).ScanEdges(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDatabase))

	f.scanErr["core-ontology-edge"] = &smithy.GenericAPIError{Code: "ThrottlingException"}
	_, err = newRepo(f).ScanEdges(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}

func TestGetNode(t *testing.T) {
	f := newFake()
	f.put(t, "core-ontology-node", ontology.Node{ID: "a", Name: "A", X: 10, Y: 20})
	repo := newRepo(f)

	n, err := repo.GetNode(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, ontology.Position{X: 10, Y: 20}, n.Position())

	_, err = repo.GetNode(context.Background(), "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateNodePosition(t *testing.T) {
	f := newFake()
	f.put(t, "core-ontology-node", ontology.Node{ID: "a", Name: "A"})
	repo := newRepo(f)
	ctx := context.Background()

	require.NoError(t, repo.UpdateNodePosition(ctx, "a", ontology.Position{X: 120, Y: 340}, "2025-06-01T09:30:00Z"))

	n, err := repo.GetNode(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, ontology.Position{X: 120, Y: 340}, n.Position())
	assert.Equal(t, "2025-06-01T09:30:00Z", n.UpdatedAt)
	assert.Equal(t, "A", n.Name)

	err = repo.UpdateNodePosition(ctx, "ghost", ontology.Position{X: 1, Y: 1}, "")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPutAndDeleteEdge(t *testing.T) {
	f := newFake()
	repo := newRepo(f)
	ctx := context.Background()

	require.NoError(t, repo.PutEdge(ctx, ontology.Edge{ID: "a-to-b", Source: "a", Target: "b", Relation: "A → B"}))
	edges, err := repo.ScanEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "A → B", edges[0].Relation)

	require.NoError(t, repo.DeleteEdge(ctx, "a-to-b"))
	err = repo.DeleteEdge(ctx, "a-to-b")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestScanCollectionAndCount(t *testing.T) {
	f := newFake()
	for _, id := range []string{"approve", "reject", "escalate"} {
		f.put(t, "core-ontology-action", map[string]any{"id": id, "label": "Action " + id})
	}
	repo := newRepo(f)
	ctx := context.Background()

	rows, err := repo.ScanCollection(ctx, "action")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "approve", rows[0].Str("id"))

	n, err := repo.CountCollection(ctx, "action")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.CountCollection(ctx, "workflow")
	require.NoError(t, err)
	assert.Zero(t, n)
}
