//go:generate go run go.uber.org/mock/mockgen -source=chatlog.go -destination=../mocks/mock_chatlog_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-relay/domain"
	"chat-relay/errors"
)

// DefaultQueryLimit caps bounded reads when the caller doesn't say how many
// records it wants.
const DefaultQueryLimit = 100

type IChatLogRepository interface {
	Append(record domain.Record) error
	QueryByRoom(ctx context.Context, room string, max int) ([]domain.Record, error)
	Search(ctx context.Context, room, query string) ([]domain.Record, uint64, error)
	History(room string, cursor *string) ([]domain.Record, *string, error)
}

// ChatLogRepository persists every chat record twice: as a BadgerDB entry
// for ordered history reads, and as a Bluge document for full-text search.
// Both stores are opened once at process start and injected.
type ChatLogRepository struct {
	db            *badger.DB
	writer        *bluge.Writer
	log           *slog.Logger
	limitMessages *int
}

func NewChatLogRepository(db *badger.DB, writer *bluge.Writer,
	log *slog.Logger, limitMessages *int) ChatLogRepository {
	return ChatLogRepository{db: db, writer: writer, log: log, limitMessages: limitMessages}
}

// diskRecord is the JSON shape stored in BadgerDB and exposed on the read
// side. The field names match the documents indexed in Bluge.
type diskRecord struct {
	ID   string    `json:"id"`
	Room string    `json:"room"`
	User string    `json:"user"`
	Kind string    `json:"kind"`
	Body string    `json:"message"`
	At   time.Time `json:"timestamp"`
}

// Append writes one record to BadgerDB and indexes it in Bluge. The Badger
// key is formatted as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two records land on the same nanosecond.
//
// The two writes are attempted independently: a failure in one store does
// not prevent the other's write. Any failure is reported as ErrLogWrite and
// is never retried here.
func (c ChatLogRepository) Append(record domain.Record) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		record.Room,
		record.At.UnixNano(),
		record.ID,
	)
	value, err := json.Marshal(fromRecord(record))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrLogWrite, err)
	}

	storeErr := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})

	doc := c.document(record)
	indexErr := c.writer.Update(doc.ID(), doc)

	if storeErr != nil || indexErr != nil {
		return fmt.Errorf("%w: %v", errors.ErrLogWrite,
			stderrors.Join(storeErr, indexErr))
	}
	return nil
}

// document builds the searchable view of a record. The message body is the
// only analyzed field; room, user and kind are exact-match keywords. The
// detected language is indexed alongside so the read side can filter by it.
func (c ChatLogRepository) document(record domain.Record) *bluge.Document {
	info := whatlanggo.Detect(record.Body)
	return bluge.NewDocument(record.ID.String()).
		AddField(bluge.NewKeywordField("room", record.Room).StoreValue()).
		AddField(bluge.NewKeywordField("user", record.User).StoreValue()).
		AddField(bluge.NewKeywordField("kind", string(record.Kind)).StoreValue()).
		AddField(bluge.NewTextField("message", record.Body).StoreValue()).
		AddField(bluge.NewKeywordField("lang", whatlanggo.LangToString(info.Lang)).StoreValue()).
		AddField(bluge.NewKeywordField("at", record.At.UTC().Format(time.RFC3339Nano)).StoreValue()).
		AddField(bluge.NewDateTimeField("timestamp", record.At).Sortable())
}

// QueryByRoom returns up to max records for the room, oldest first. A max
// of zero or less falls back to DefaultQueryLimit. This read runs against
// the index, off the hot broadcast path.
func (c ChatLogRepository) QueryByRoom(ctx context.Context, room string, max int) ([]domain.Record, error) {
	if max <= 0 {
		max = DefaultQueryLimit
	}
	query := bluge.NewTermQuery(room).SetField("room")
	request := bluge.NewTopNSearch(max, query).
		SortBy([]string{"timestamp"})

	records, _, err := c.collect(ctx, request)
	return records, err
}

// Search matches free text against message bodies within one room,
// ascending by timestamp, capped at DefaultQueryLimit. The total reported
// is the overall number of hits, not the page size.
func (c ChatLogRepository) Search(ctx context.Context, room, query string) ([]domain.Record, uint64, error) {
	boolean := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(room).SetField("room")).
		AddMust(bluge.NewMatchQuery(query).SetField("message"))
	request := bluge.NewTopNSearch(DefaultQueryLimit, boolean).
		SortBy([]string{"timestamp"}).
		WithStandardAggregations()

	return c.collect(ctx, request)
}

func (c ChatLogRepository) collect(ctx context.Context, request bluge.SearchRequest) ([]domain.Record, uint64, error) {
	reader, err := c.writer.Reader()
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = reader.Close() }()

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, err
	}

	var records []domain.Record
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, 0, err
		}
		if match == nil {
			break
		}

		var record domain.Record
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.ParseBytes(value); parseErr == nil {
					record.ID = id
				}
			case "room":
				record.Room = string(value)
			case "user":
				record.User = string(value)
			case "kind":
				record.Kind = domain.Kind(value)
			case "message":
				record.Body = string(value)
			case "at":
				if at, parseErr := time.Parse(time.RFC3339Nano, string(value)); parseErr == nil {
					record.At = at
				}
			}
			return true
		})
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}

	var total uint64
	if aggs := iterator.Aggregations(); aggs != nil {
		total = aggs.Count()
	}
	return records, total, nil
}

// History retrieves records for a room from BadgerDB using a reverse prefix
// scan, newest first, one page per call. Thanks to the padded timestamp in
// the key, records are naturally ordered by time. The returned cursor
// resumes the scan on the next call and is nil once the scan is exhausted;
// collection stops once the configured limitMessages is reached.
func (c ChatLogRepository) History(room string, cursor *string) ([]domain.Record, *string, error) {
	var values [][]byte
	var lastKey string

	err := c.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)

		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key for this room, then
			// walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if c.limitMessages != nil && len(values) == *c.limitMessages {
				c.log.Debug(fmt.Sprintf("Maximum of %d records reached", *c.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			if err := item.Value(func(value []byte) error {
				values = append(values, append([]byte(nil), value...))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// an empty page means the scan is exhausted, so no cursor to resume from
	if len(values) == 0 {
		return nil, nil, nil
	}

	var records []domain.Record
	for _, value := range values {
		var disk diskRecord
		if err := json.Unmarshal(value, &disk); err != nil {
			return nil, nil, err
		}
		record, err := toRecord(disk)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}
	return records, &lastKey, nil
}

func fromRecord(record domain.Record) diskRecord {
	return diskRecord{
		ID:   record.ID.String(),
		Room: record.Room,
		User: record.User,
		Kind: string(record.Kind),
		Body: record.Body,
		At:   record.At.UTC(),
	}
}

func toRecord(disk diskRecord) (domain.Record, error) {
	id, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Record{}, err
	}
	return domain.Record{
		ID:   id,
		Room: disk.Room,
		User: disk.User,
		Kind: domain.Kind(disk.Kind),
		Body: disk.Body,
		At:   disk.At.UTC(),
	}, nil
}
