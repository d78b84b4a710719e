// Inspect dumps the chat database as a table, one row per stored record.
// Useful during development to check what the pipeline actually persisted
// without standing up the server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, room:, user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				rowType, ts, detail := describe(key, v)
				table.Append([]string{key, rowType, ts, detail})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	color.Green.Printf("%d record(s) under prefix %q\n", rows, *prefix)
}

// describe maps a raw record to its display columns based on its key
// namespace. Unknown or corrupt values still get a row, never a crash.
func describe(key string, value []byte) (rowType, ts, detail string) {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var msg struct {
			UserID string `json:"userId"`
			Text   string `json:"text"`
			At     int64  `json:"at"`
		}
		if err := json.Unmarshal(value, &msg); err != nil {
			return "MSG", "", "unmarshal failed"
		}
		return color.Cyan.Sprint("MSG"),
			time.Unix(0, msg.At).UTC().Format(time.RFC3339),
			fmt.Sprintf("%.8s… %s", msg.UserID, msg.Text)

	case strings.HasPrefix(key, "room:"):
		var room struct {
			Name      string `json:"name"`
			CreatedAt int64  `json:"createdAt"`
		}
		if err := json.Unmarshal(value, &room); err != nil {
			return "ROOM", "", "unmarshal failed"
		}
		return color.Yellow.Sprint("ROOM"),
			time.Unix(0, room.CreatedAt).UTC().Format(time.RFC3339),
			room.Name

	case strings.HasPrefix(key, "user:"):
		var user struct {
			UserName  string   `json:"userName"`
			Roles     []string `json:"roles"`
			CreatedAt int64    `json:"createdAt"`
		}
		if err := json.Unmarshal(value, &user); err != nil {
			return "USER", "", "unmarshal failed"
		}
		return color.Magenta.Sprint("USER"),
			time.Unix(user.CreatedAt, 0).UTC().Format(time.RFC3339),
			fmt.Sprintf("%s %v", user.UserName, user.Roles)

	default:
		return "?", "", fmt.Sprintf("%d bytes", len(value))
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
