package dynamodb

import (
	"context"
	"fmt"
	"sort"

	"ontology-backend/domain/ontology"
	apperrors "ontology-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// API is the subset of the DynamoDB client the repository uses.
type API interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// OntologyRepository stores each collection in its own table named
// <prefix><collection>, keyed by the string attribute "id".
type OntologyRepository struct {
	client API
	prefix string
	logger *zap.Logger
}

// NewOntologyRepository creates a repository over the tables sharing prefix.
func NewOntologyRepository(client API, prefix string, logger *zap.Logger) *OntologyRepository {
	if prefix == "" {
		prefix = ontology.DefaultTablePrefix
	}
	return &OntologyRepository{client: client, prefix: prefix, logger: logger}
}

func (r *OntologyRepository) table(collection string) string {
	return r.prefix + collection
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

// scan reads every page of a table.
func (r *OntologyRepository) scan(ctx context.Context, collection string) ([]map[string]types.AttributeValue, error) {
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.table(collection)),
	})

	var items []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			r.logger.Error("Failed to scan table",
				zap.String("table", r.table(collection)),
				zap.Error(err),
			)
			return nil, mapError("scan "+collection, err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func (r *OntologyRepository) ScanNodes(ctx context.Context) ([]ontology.Node, error) {
	items, err := r.scan(ctx, ontology.CollectionNode)
	if err != nil {
		return nil, err
	}
	nodes := make([]ontology.Node, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}
	return nodes, nil
}

func (r *OntologyRepository) GetNode(ctx context.Context, id string) (*ontology.Node, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table(ontology.CollectionNode)),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, mapError("get node", err)
	}
	if out.Item == nil {
		return nil, apperrors.NewNodeNotFound(id)
	}

	var node ontology.Node
	if err := attributevalue.UnmarshalMap(out.Item, &node); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return &node, nil
}

func (r *OntologyRepository) PutNode(ctx context.Context, node ontology.Node) error {
	item, err := attributevalue.MarshalMap(node)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table(ontology.CollectionNode)),
		Item:      item,
	}); err != nil {
		r.logger.Error("Failed to save node", zap.String("nodeId", node.ID), zap.Error(err))
		return mapError("put node", err)
	}
	return nil
}

// UpdateNode sets the given attributes on an existing node. Keys are the stored
// attribute names.
func (r *OntologyRepository) UpdateNode(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	update := expression.Set(expression.Name(keys[0]), expression.Value(fields[keys[0]]))
	for _, k := range keys[1:] {
		update = update.Set(expression.Name(k), expression.Value(fields[k]))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
	if err != nil {
		return apperrors.NewInvalidRequest(fmt.Sprintf("invalid node update: %v", err))
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table(ontology.CollectionNode)),
		Key:                       idKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return apperrors.NewNodeNotFound(id)
		}
		r.logger.Error("Failed to update node", zap.String("nodeId", id), zap.Error(err))
		return mapError("update node", err)
	}
	return nil
}

func (r *OntologyRepository) UpdateNodePosition(ctx context.Context, id string, pos ontology.Position, updatedAt string) error {
	return r.UpdateNode(ctx, id, map[string]any{
		"x":         pos.X,
		"y":         pos.Y,
		"updatedAt": updatedAt,
	})
}

func (r *OntologyRepository) DeleteNode(ctx context.Context, id string) error {
	return r.deleteItem(ctx, ontology.CollectionNode, id,
		apperrors.NewNodeNotFound(id))
}

func (r *OntologyRepository) ScanEdges(ctx context.Context) ([]ontology.Edge, error) {
	items, err := r.scan(ctx, ontology.CollectionEdge)
	if err != nil {
		return nil, err
	}
	edges := make([]ontology.Edge, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &edges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}
	return edges, nil
}

func (r *OntologyRepository) PutEdge(ctx context.Context, edge ontology.Edge) error {
	item, err := attributevalue.MarshalMap(edge)
	if err != nil {
		return fmt.Errorf("failed to marshal edge: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table(ontology.CollectionEdge)),
		Item:      item,
	}); err != nil {
		r.logger.Error("Failed to save edge", zap.String("edgeId", edge.ID), zap.Error(err))
		return mapError("put edge", err)
	}
	return nil
}

func (r *OntologyRepository) DeleteEdge(ctx context.Context, id string) error {
	return r.deleteItem(ctx, ontology.CollectionEdge, id,
		apperrors.NewEdgeNotFound(id))
}

func (r *OntologyRepository) deleteItem(ctx context.Context, collection, id string, notFound error) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
	if err != nil {
		return err
	}
	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.table(collection)),
		Key:                      idKey(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return notFound
		}
		r.logger.Error("Failed to delete item",
			zap.String("table", r.table(collection)),
			zap.String("id", id),
			zap.Error(err),
		)
		return mapError("delete "+collection, err)
	}
	return nil
}

// ScanCollection reads a collection as loosely typed records.
func (r *OntologyRepository) ScanCollection(ctx context.Context, collection string) ([]ontology.Record, error) {
	items, err := r.scan(ctx, collection)
	if err != nil {
		return nil, err
	}
	records := make([]ontology.Record, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s records: %w", collection, err)
	}
	return records, nil
}

// CountCollection counts items with a COUNT scan so no attributes are read.
func (r *OntologyRepository) CountCollection(ctx context.Context, collection string) (int, error) {
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.table(collection)),
		Select:    types.SelectCount,
	})

	total := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, mapError("count "+collection, err)
		}
		total += int(page.Count)
	}
	return total, nil
}
