package s3

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/poliorcetics/growable-bitmap/blobstore"
)

// PointerName is the base name of snapshot pointer blobs. DDBCommitStore
// routes every blob with this base name through DynamoDB.
const PointerName = "CURRENT"

// ErrConcurrentModification is returned when another writer committed the
// same pointer version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB API used by DDBCommitStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// DDBCommitStore is a blobstore.BlobStore that commits CURRENT pointers
// through DynamoDB conditional writes and stores everything else in an inner
// store, usually a *Store.
//
// Each pointer is a sequence of versioned items; a commit writes version
// latest+1 on the condition that it does not exist yet. Of two writers racing
// from the same latest version exactly one wins, the other gets
// ErrConcurrentModification. After a successful commit the pointer is also
// written to the inner store, so List and external tools still see it.
//
// Table schema:
//   - Partition key: base_uri (string), baseURI plus the pointer's directory
//   - Sort key: version (number)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name bitmap-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	inner     blobstore.BlobStore
	ddbClient DDBClient
	tableName string
	baseURI   string
}

var _ blobstore.BlobStore = (*DDBCommitStore)(nil)

// NewDDBCommitStore creates a commit store. baseURI identifies the inner
// store in the table, e.g. "s3://bucket/prefix".
func NewDDBCommitStore(inner blobstore.BlobStore, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		inner:     inner,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// NewDDBClient creates a DynamoDB client using the default AWS credential
// chain. An empty region keeps the configured default.
func NewDDBClient(ctx context.Context, region string) (*dynamodb.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func isPointer(name string) bool {
	return path.Base(name) == PointerName
}

func (s *DDBCommitStore) partition(name string) string {
	return s.baseURI + "/" + path.Dir(name)
}

// Open opens a blob. Pointers are read from the latest committed item.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if !isPointer(name) {
		return s.inner.Open(ctx, name)
	}

	version, data, err := s.latest(ctx, s.partition(name))
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, fmt.Errorf("dynamodb: %s: %w", name, blobstore.ErrNotFound)
	}

	mem := blobstore.NewMemoryStore()
	if err := mem.Put(ctx, name, data); err != nil {
		return nil, err
	}
	return mem.Open(ctx, name)
}

// Put writes a blob. Pointers are committed with a conditional write.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if !isPointer(name) {
		return s.inner.Put(ctx, name, data)
	}
	if _, err := s.Commit(ctx, name, data); err != nil {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

// Commit appends a new version of the pointer name and returns it.
func (s *DDBCommitStore) Commit(ctx context.Context, name string, data []byte) (uint64, error) {
	pk := s.partition(name)

	current, _, err := s.latest(ctx, pk)
	if err != nil {
		return 0, err
	}
	next := current + 1

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: pk},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"pointer":  &types.AttributeValueMemberB{Value: data},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, fmt.Errorf("%w: %s version %d", ErrConcurrentModification, name, next)
		}
		return 0, fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}
	return next, nil
}

// Create creates a writable blob in the inner store. Pointers must be written
// with Put.
func (s *DDBCommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if isPointer(name) {
		return nil, fmt.Errorf("%w: %s must be written with Put", blobstore.ErrInvalidName, name)
	}
	return s.inner.Create(ctx, name)
}

// Delete removes a blob. Deleting a pointer removes its whole history.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if !isPointer(name) {
		return s.inner.Delete(ctx, name)
	}

	pk := s.partition(name)
	versions, err := s.versions(ctx, pk)
	if err != nil {
		return err
	}
	for _, v := range versions {
		_, err := s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"base_uri": &types.AttributeValueMemberS{Value: pk},
				"version":  &types.AttributeValueMemberN{Value: v},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete version %s from DynamoDB: %w", v, err)
		}
	}
	return s.inner.Delete(ctx, name)
}

// List lists blobs of the inner store.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// latest returns the newest committed version of a pointer and its content.
// Version 0 means nothing was committed yet.
func (s *DDBCommitStore) latest(ctx context.Context, pk string) (uint64, []byte, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: pk},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, nil, nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil, errors.New("invalid version attribute in DynamoDB")
	}
	pointerAttr, ok := item["pointer"].(*types.AttributeValueMemberB)
	if !ok {
		return 0, nil, errors.New("invalid pointer attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse version: %w", err)
	}
	return version, pointerAttr.Value, nil
}

// versions returns every committed version number of a pointer.
func (s *DDBCommitStore) versions(ctx context.Context, pk string) ([]string, error) {
	var (
		out   []string
		start map[string]types.AttributeValue
	)
	for {
		resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("base_uri = :uri"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uri": &types.AttributeValueMemberS{Value: pk},
			},
			ProjectionExpression: aws.String("version"),
			ExclusiveStartKey:    start,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
		}
		for _, item := range resp.Items {
			if v, ok := item["version"].(*types.AttributeValueMemberN); ok {
				out = append(out, v.Value)
			}
		}
		if len(resp.LastEvaluatedKey) == 0 {
			return out, nil
		}
		start = resp.LastEvaluatedKey
	}
}
