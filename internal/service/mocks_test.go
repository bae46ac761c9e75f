package service

import (
	"context"
	"fmt"
	"time"

	"github.com/askadoc/askadoc/internal/domain"
)

// fakeEmbedder returns deterministic embeddings keyed by text content.
type fakeEmbedder struct {
	vectors map[string][]float32
	dims    int
	err     error
	calls   int
}

func newFakeEmbedder(dims int) *fakeEmbedder {
	return &fakeEmbedder{vectors: make(map[string][]float32), dims: dims}
}

func (f *fakeEmbedder) set(text string, vec []float32) {
	f.vectors[text] = vec
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	vec := make([]float32, f.dims)
	vec[0] = 1
	return vec, nil
}

func (f *fakeEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := f.GenerateEmbedding(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

type fakeLLM struct {
	response string
	err      error
	gotMsgs  []domain.PromptMessage
}

func (f *fakeLLM) Complete(_ context.Context, messages []domain.PromptMessage) (string, error) {
	f.gotMsgs = messages
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// memDocRepo is an in-memory DocumentRepository keyed by filename per user.
type memDocRepo struct {
	docs     map[string]*domain.Document // key: userID + "/" + filename
	order    []string
	queryErr error
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[string]*domain.Document)}
}

func (r *memDocRepo) Replace(_ context.Context, doc *domain.Document) error {
	key := doc.UserID + "/" + doc.Filename
	if _, exists := r.docs[key]; !exists {
		r.order = append(r.order, key)
	}
	r.docs[key] = doc
	return nil
}

func (r *memDocRepo) QueryChunksByScope(_ context.Context, userID string, scope Scope) ([]domain.Chunk, error) {
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	allowed := func(filename string) bool {
		if scope.Mode == ScopeGlobal {
			return true
		}
		for _, name := range scope.Documents {
			if name == filename {
				return true
			}
		}
		return false
	}
	var chunks []domain.Chunk
	for _, key := range r.order {
		doc := r.docs[key]
		if doc.UserID != userID || !allowed(doc.Filename) {
			continue
		}
		chunks = append(chunks, doc.Chunks...)
	}
	return chunks, nil
}

func (r *memDocRepo) ListFilenames(_ context.Context, userID string) ([]string, error) {
	names := []string{}
	for _, key := range r.order {
		if doc := r.docs[key]; doc.UserID == userID {
			names = append(names, doc.Filename)
		}
	}
	return names, nil
}

func (r *memDocRepo) GetByFilename(_ context.Context, userID, filename string) (*domain.Document, error) {
	if doc, ok := r.docs[userID+"/"+filename]; ok {
		return doc, nil
	}
	return nil, domain.ErrDocumentNotFound
}

// memConvRepo is an in-memory ConversationRepository.
type memConvRepo struct {
	active   map[string]*domain.Conversation
	archives map[string][]*domain.ConversationArchive
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{
		active:   make(map[string]*domain.Conversation),
		archives: make(map[string][]*domain.ConversationArchive),
	}
}

func (r *memConvRepo) GetActive(_ context.Context, userID string) (*domain.Conversation, error) {
	if conv, ok := r.active[userID]; ok {
		cp := *conv
		cp.Turns = append([]domain.ConversationTurn(nil), conv.Turns...)
		return &cp, nil
	}
	return &domain.Conversation{UserID: userID}, nil
}

func (r *memConvRepo) UpsertActive(_ context.Context, conv *domain.Conversation) error {
	cp := *conv
	cp.Turns = append([]domain.ConversationTurn(nil), conv.Turns...)
	r.active[conv.UserID] = &cp
	return nil
}

func (r *memConvRepo) ResetActive(_ context.Context, userID string, startedAt time.Time) error {
	r.active[userID] = &domain.Conversation{UserID: userID, StartedAt: startedAt}
	return nil
}

func (r *memConvRepo) InsertArchive(_ context.Context, archive *domain.ConversationArchive) error {
	r.archives[archive.UserID] = append(r.archives[archive.UserID], archive)
	return nil
}

func (r *memConvRepo) ListArchives(_ context.Context, userID string) ([]*domain.ConversationArchive, error) {
	return r.archives[userID], nil
}

func (r *memConvRepo) GetArchiveByIndex(_ context.Context, userID string, index int) (*domain.ConversationArchive, error) {
	list := r.archives[userID]
	if index < 0 || index >= len(list) {
		return nil, domain.ErrArchiveNotFound
	}
	return list[index], nil
}

// memTxRunner executes the transaction body directly against in-memory repos.
type memTxRunner struct {
	docs  *memDocRepo
	convs *memConvRepo
}

func (t *memTxRunner) WithTx(_ context.Context, fn func(repos TxRepositories) error) error {
	return fn(memTxRepos{t})
}

type memTxRepos struct {
	runner *memTxRunner
}

func (r memTxRepos) Documents() DocumentRepository         { return r.runner.docs }
func (r memTxRepos) Conversations() ConversationRepository { return r.runner.convs }

// seqUUIDGen produces predictable IDs.
type seqUUIDGen struct {
	n int
}

func (g *seqUUIDGen) NewString() string {
	g.n++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", g.n)
}
