package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/yungbote/postforge-backend/internal/app"
	types "github.com/yungbote/postforge-backend/internal/domain/content"
	"github.com/yungbote/postforge-backend/internal/platform/dbctx"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var docs idList
	var owner string
	var dryRun bool
	var limit int
	flag.Var(&docs, "doc", "raw_document_id to extract (repeatable)")
	flag.StringVar(&owner, "owner", "", "only documents of this owner_id")
	flag.BoolVar(&dryRun, "dry-run", false, "print selected documents without normalizing or extracting")
	flag.IntVar(&limit, "limit", 0, "limit number of documents processed")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	dbc := dbctx.Context{Ctx: ctx}

	var ownerID *uuid.UUID
	if strings.TrimSpace(owner) != "" {
		id, err := uuid.Parse(strings.TrimSpace(owner))
		if err != nil {
			fmt.Printf("invalid -owner: %v\n", err)
			os.Exit(2)
		}
		ownerID = &id
	}

	var rows []*types.RawDocument
	if len(docs) > 0 {
		for _, s := range docs {
			id, err := uuid.Parse(s)
			if err != nil || id == uuid.Nil {
				fmt.Printf("skipping invalid raw_document_id %q\n", s)
				continue
			}
			doc, err := application.Repos.RawDocument.GetByID(dbc, id)
			if err != nil {
				fmt.Printf("load %s: %v\n", id, err)
				continue
			}
			if ownerID != nil && doc.OwnerID != *ownerID {
				continue
			}
			rows = append(rows, doc)
		}
	} else {
		rows, err = application.Repos.RawDocument.ListPending(dbc, ownerID, limit)
		if err != nil {
			fmt.Printf("list pending documents: %v\n", err)
			os.Exit(1)
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	processed, created, skipped, failed := 0, 0, 0, 0
	for _, doc := range rows {
		if ctx.Err() != nil {
			fmt.Println("interrupted")
			break
		}
		if dryRun {
			fmt.Printf("[dry-run] extract raw_document_id=%s owner_id=%s source_type=%s\n", doc.ID, doc.OwnerID, doc.SourceType)
			continue
		}
		res, err := application.Services.Content.ExtractDocument(ctx, doc.ID, true)
		if err != nil {
			fmt.Printf("extract failed for %s: %v\n", doc.ID, err)
			failed++
			continue
		}
		processed++
		created += len(res.IdeaIDs)
		skipped += res.Skipped
		failed += res.Failed
		for _, idea := range res.Ideas {
			if idea.Err != nil {
				failed++
			}
			fmt.Println(idea.String())
		}
	}

	fmt.Printf("done; documents=%d ideas=%d skipped=%d failed=%d\n", processed, created, skipped, failed)
}
