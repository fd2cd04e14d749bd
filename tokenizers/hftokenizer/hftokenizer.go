// Package hftokenizer implements a tokenizer for HuggingFace's tokenizer.json format.
// This format is used by the HuggingFace Tokenizers library (the "fast" tokenizers)
// and supports WordPiece (BERT), BPE (GPT-2, RoBERTa), and Unigram models.
//
// Parsing a tokenizer.json builds a tokenizer.Pipeline out of the same
// normalizer/pre-tokenizer/model/decoder/post-processor/added-token-router
// stages the rest of this module exposes directly; this package is purely
// the JSON-schema adapter in front of it.
package hftokenizer

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/tokenpipe/subword/addedtoken"
	"github.com/tokenpipe/subword/bpe"
	"github.com/tokenpipe/subword/bytelevel"
	"github.com/tokenpipe/subword/decoders"
	"github.com/tokenpipe/subword/hub"
	"github.com/tokenpipe/subword/normalizers"
	"github.com/tokenpipe/subword/normstring"
	"github.com/tokenpipe/subword/postprocessors"
	"github.com/tokenpipe/subword/pretokenizers"
	"github.com/tokenpipe/subword/tokenizer"
	"github.com/tokenpipe/subword/tokenizers/api"
	"github.com/tokenpipe/subword/unigram"
	"github.com/tokenpipe/subword/wordpiece"
)

// TokenizerJSON represents the structure of HuggingFace's tokenizer.json file.
type TokenizerJSON struct {
	Version       string          `json:"version"`
	Truncation    json.RawMessage `json:"truncation"`
	Padding       json.RawMessage `json:"padding"`
	AddedTokens   []AddedToken    `json:"added_tokens"`
	Normalizer    *Normalizer     `json:"normalizer"`
	PreTokenizer  *PreTokenizer   `json:"pre_tokenizer"`
	PostProcessor *PostProcessor  `json:"post_processor"`
	Decoder       *Decoder        `json:"decoder"`
	Model         Model           `json:"model"`
}

// AddedToken represents a special token added to the vocabulary.
type AddedToken struct {
	ID         int    `json:"id"`
	Content    string `json:"content"`
	SingleWord bool   `json:"single_word"`
	Lstrip     bool   `json:"lstrip"`
	Rstrip     bool   `json:"rstrip"`
	Normalized bool   `json:"normalized"`
	Special    bool   `json:"special"`
}

// Normalizer represents the normalizer configuration. CleanText,
// HandleChineseChars and StripAccents are nullable so BertNormalizer's
// HuggingFace defaults (true, true, "follow lowercase") can be told apart
// from an explicit false.
type Normalizer struct {
	Type               string       `json:"type"`
	Lowercase          bool         `json:"lowercase"`
	CleanText          *bool        `json:"clean_text"`
	HandleChineseChars *bool        `json:"handle_chinese_chars"`
	StripAccents       *bool        `json:"strip_accents"`
	Normalizers        []Normalizer `json:"normalizers"`
}

// Pattern for regex-based operations.
type Pattern struct {
	Regex  string `json:"Regex,omitempty"`
	String string `json:"String,omitempty"`
}

// PreTokenizer represents the pre-tokenizer configuration.
type PreTokenizer struct {
	Type           string         `json:"type"`
	AddPrefixSpace bool           `json:"add_prefix_space"`
	PreTokenizers  []PreTokenizer `json:"pretokenizers"`
	Pattern        *Pattern       `json:"pattern"`
	Behavior       string         `json:"behavior"`
	Invert         bool           `json:"invert"`
}

// PostProcessor represents the post-processor configuration.
type PostProcessor struct {
	Type          string                          `json:"type"`
	Single        []PostProcItem                  `json:"single"`
	Pair          []PostProcItem                  `json:"pair"`
	SpecialTokens map[string]PostProcSpecialToken `json:"special_tokens"`
}

// PostProcItem is an item in a TemplateProcessing template: either a
// sequence placeholder ($A/$B) or a named special token, each carrying the
// type id to assign.
type PostProcItem struct {
	SpecialToken *struct {
		ID     string `json:"id"`
		TypeID int    `json:"type_id"`
	} `json:"SpecialToken,omitempty"`
	Sequence *struct {
		ID     string `json:"id"`
		TypeID int    `json:"type_id"`
	} `json:"Sequence,omitempty"`
}

// PostProcSpecialToken defines a special token for post-processing.
type PostProcSpecialToken struct {
	ID     string   `json:"id"`
	IDs    []int    `json:"ids"`
	Tokens []string `json:"tokens"`
}

// Decoder represents the decoder configuration.
type Decoder struct {
	Type     string    `json:"type"`
	Prefix   string     `json:"prefix"`
	Suffix   string     `json:"suffix"`
	Decoders []Decoder `json:"decoders"`
	Pattern  *Pattern  `json:"pattern"`
	Content  string    `json:"content"`
	Start    int       `json:"start"`
	Stop     int       `json:"stop"`
}

// Model represents the tokenizer model (WordPiece, BPE, or Unigram). Vocab
// is left as raw JSON because its shape depends on Type: WordPiece/BPE
// serialize it as a {token: id} object, Unigram as an ordered array of
// [token, score] pairs.
type Model struct {
	Type                    string          `json:"type"`
	Vocab                   json.RawMessage `json:"vocab"`
	Merges                  []string        `json:"merges"`
	UnkToken                string          `json:"unk_token"`
	UnkID                   *int            `json:"unk_id"`
	ContinuingSubwordPrefix string          `json:"continuing_subword_prefix"`
	MaxInputCharsPerWord    int             `json:"max_input_chars_per_word"`
	FuseUnk                 bool            `json:"fuse_unk"`
	ByteFallback            bool            `json:"byte_fallback"`
	Dropout                 *float64        `json:"dropout"`
	EndOfWordSuffix         string          `json:"end_of_word_suffix"`
}

func (m Model) vocabMap() (map[string]int, error) {
	if len(m.Vocab) == 0 {
		return map[string]int{}, nil
	}
	var v map[string]int
	if err := json.Unmarshal(m.Vocab, &v); err != nil {
		return nil, errors.Wrap(err, "parsing model vocab")
	}
	return v, nil
}

func (m Model) vocabUnigramTable() ([]unigram.TokenScore, error) {
	if len(m.Vocab) == 0 {
		return nil, errors.New("hftokenizer: unigram model requires a vocab")
	}
	var entries [][2]json.RawMessage
	if err := json.Unmarshal(m.Vocab, &entries); err != nil {
		return nil, errors.Wrap(err, "parsing unigram vocab")
	}
	out := make([]unigram.TokenScore, len(entries))
	for i, e := range entries {
		var tok string
		if err := json.Unmarshal(e[0], &tok); err != nil {
			return nil, errors.Wrapf(err, "unigram vocab entry %d", i)
		}
		var score float64
		if err := json.Unmarshal(e[1], &score); err != nil {
			return nil, errors.Wrapf(err, "unigram vocab entry %d", i)
		}
		out[i] = unigram.TokenScore{Token: tok, Score: score}
	}
	return out, nil
}

func toUint32Vocab(v map[string]int) map[string]uint32 {
	out := make(map[string]uint32, len(v))
	for k, id := range v {
		out[k] = uint32(id)
	}
	return out
}

// buildModel dispatches to the matching segmentation package, returning
// the built tokenizer.Model plus its vocabulary as a plain token->id map
// (used for TokenToID/GetVocab and for resolving special token ids).
func buildModel(m Model) (tokenizer.Model, map[string]int, error) {
	switch m.Type {
	case "WordPiece":
		vocab, err := m.vocabMap()
		if err != nil {
			return nil, nil, err
		}
		wm := wordpiece.New(toUint32Vocab(vocab), m.ContinuingSubwordPrefix, m.UnkToken, m.MaxInputCharsPerWord)
		return wm, vocab, nil
	case "BPE":
		vocab, err := m.vocabMap()
		if err != nil {
			return nil, nil, err
		}
		mergeList := make([][2]string, 0, len(m.Merges))
		for _, merge := range m.Merges {
			parts := strings.SplitN(merge, " ", 2)
			if len(parts) != 2 {
				continue
			}
			mergeList = append(mergeList, [2]string{parts[0], parts[1]})
		}
		var opts []bpe.Option
		if m.ContinuingSubwordPrefix != "" {
			opts = append(opts, bpe.WithContinuingSubwordPrefix(m.ContinuingSubwordPrefix))
		}
		if m.EndOfWordSuffix != "" {
			opts = append(opts, bpe.WithEndOfWordSuffix(m.EndOfWordSuffix))
		}
		if m.UnkToken != "" {
			opts = append(opts, bpe.WithUnkToken(m.UnkToken))
		}
		if m.Dropout != nil {
			opts = append(opts, bpe.WithDropout(*m.Dropout))
		}
		bm, err := bpe.New(toUint32Vocab(vocab), mergeList, opts...)
		if err != nil {
			return nil, nil, errors.Wrap(err, "building BPE model")
		}
		return bm, vocab, nil
	case "Unigram":
		table, err := m.vocabUnigramTable()
		if err != nil {
			return nil, nil, err
		}
		unkID := -1
		if m.UnkID != nil {
			unkID = *m.UnkID
		}
		um, err := unigram.From(table, unkID)
		if err != nil {
			return nil, nil, errors.Wrap(err, "building Unigram model")
		}
		vocab := make(map[string]int, len(table))
		for i, ts := range table {
			vocab[ts.Token] = i
		}
		return um, vocab, nil
	default:
		return nil, nil, errors.Errorf("hftokenizer: unsupported model type %q", m.Type)
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// buildNormalizer translates one JSON normalizer node into the matching
// normalizers package type. An unrecognized type falls back to a no-op
// (nil), the same passthrough the original parser gave every
// normalizer it didn't special-case.
func buildNormalizer(n *Normalizer) (tokenizer.Normalizer, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Type {
	case "Lowercase":
		return normalizers.Lowercase{}, nil
	case "NFC":
		return normalizers.NFC, nil
	case "NFD":
		return normalizers.NFD, nil
	case "NFKC":
		return normalizers.NFKC, nil
	case "NFKD":
		return normalizers.NFKD, nil
	case "StripAccents":
		return normalizers.StripAccents{}, nil
	case "BertNormalizer":
		lower := n.Lowercase
		return normalizers.BertNormalizer{
			Lowercase:          lower,
			HandleChineseChars: boolOr(n.HandleChineseChars, true),
			StripAccents:       boolOr(n.StripAccents, lower),
			CleanText:          boolOr(n.CleanText, true),
		}, nil
	case "Sequence":
		var seq []tokenizer.Normalizer
		for i := range n.Normalizers {
			sub, err := buildNormalizer(&n.Normalizers[i])
			if err != nil {
				return nil, err
			}
			if sub != nil {
				seq = append(seq, sub)
			}
		}
		return normalizers.Sequence{Normalizers: seq}, nil
	default:
		return nil, nil
	}
}

// buildPreTokenizer translates one JSON pre-tokenizer node. A nil node or
// an unrecognized type falls back to Whitespace, matching the original
// parser's strings.Fields default.
func buildPreTokenizer(pt *PreTokenizer) (tokenizer.PreTokenizer, error) {
	if pt == nil {
		return pretokenizers.Whitespace{}, nil
	}
	switch pt.Type {
	case "BertPreTokenizer":
		return pretokenizers.BertPreTokenizer{}, nil
	case "Whitespace", "WhitespaceSplit":
		return pretokenizers.Whitespace{}, nil
	case "ByteLevel":
		return bytelevel.New(pt.AddPrefixSpace), nil
	case "Metaspace":
		return pretokenizers.Metaspace{AddPrefixSpace: pt.AddPrefixSpace}, nil
	case "Punctuation":
		behavior := pretokenizers.Isolated
		if strings.EqualFold(pt.Behavior, "Removed") {
			behavior = pretokenizers.Removed
		}
		return pretokenizers.Punctuation{Behavior: behavior}, nil
	case "Sequence":
		seq := make([]tokenizer.PreTokenizer, 0, len(pt.PreTokenizers))
		for i := range pt.PreTokenizers {
			sub, err := buildPreTokenizer(&pt.PreTokenizers[i])
			if err != nil {
				return nil, err
			}
			seq = append(seq, sub)
		}
		return pretokenizers.Sequence{PreTokenizers: seq}, nil
	default:
		return pretokenizers.Whitespace{}, nil
	}
}

// joinPlain concatenates its tokens verbatim; it stands in as the
// Underlying decoder for a standalone Strip/Replace step, where "whatever
// came before" is simply the token list as given.
type joinPlain struct{}

func (joinPlain) Decode(tokens []string) string { return strings.Join(tokens, "") }

// buildDecoder translates one JSON decoder node. A nil node or an
// unrecognized type returns (nil, nil); NewFromContent installs the
// default WordPiece-prefix decoder in that case.
func buildDecoder(d *Decoder) (tokenizer.Decoder, error) {
	if d == nil {
		return nil, nil
	}
	switch d.Type {
	case "WordPiece":
		prefix := d.Prefix
		if prefix == "" {
			prefix = "##"
		}
		return decoders.WordPiece{Prefix: prefix}, nil
	case "ByteLevel":
		return bytelevel.Decoder{}, nil
	case "Metaspace":
		return decoders.Metaspace{}, nil
	case "BPEDecoder":
		return decoders.BPEDecoder{Suffix: d.Suffix}, nil
	case "Strip":
		chars := []rune(d.Content)
		c := ' '
		if len(chars) > 0 {
			c = chars[0]
		}
		return decoders.Strip{Char: c, Left: d.Start, Right: d.Stop, Underlying: joinPlain{}}, nil
	case "Replace":
		old := ""
		if d.Pattern != nil {
			old = d.Pattern.String
		}
		return decoders.Replace{Old: old, New: d.Content, Underlying: joinPlain{}}, nil
	case "Sequence":
		seq := make([]tokenizer.Decoder, 0, len(d.Decoders))
		for i := range d.Decoders {
			sub, err := buildDecoder(&d.Decoders[i])
			if err != nil {
				return nil, err
			}
			if sub != nil {
				seq = append(seq, sub)
			}
		}
		return decoders.Sequence{Decoders: seq}, nil
	default:
		return nil, nil
	}
}

func convertTemplate(items []PostProcItem) []postprocessors.TemplateItem {
	out := make([]postprocessors.TemplateItem, 0, len(items))
	for _, it := range items {
		switch {
		case it.SpecialToken != nil:
			out = append(out, postprocessors.TemplateItem{
				IsSpecialToken:   true,
				SpecialTokenName: it.SpecialToken.ID,
				TypeID:           uint32(it.SpecialToken.TypeID),
			})
		case it.Sequence != nil:
			idx := 0
			if it.Sequence.ID == "B" {
				idx = 1
			}
			out = append(out, postprocessors.TemplateItem{SequenceIndex: idx, TypeID: uint32(it.Sequence.TypeID)})
		}
	}
	return out
}

// buildPostProcessor translates a JSON post_processor node. Only
// TemplateProcessing is understood (the shape HuggingFace's BERT/RoBERTa
// style tokenizers actually serialize); anything else returns (nil, nil)
// so Encode simply doesn't splice in special tokens, as the original
// parser never did for any post-processor type.
func buildPostProcessor(pp *PostProcessor) (tokenizer.PostProcessor, error) {
	if pp == nil {
		return nil, nil
	}
	if pp.Type != "TemplateProcessing" {
		return nil, nil
	}
	specs := make(map[string]postprocessors.SpecialTokenSpec, len(pp.SpecialTokens))
	for name, spec := range pp.SpecialTokens {
		if len(spec.IDs) == 0 || len(spec.Tokens) == 0 {
			continue
		}
		specs[name] = postprocessors.SpecialTokenSpec{ID: uint32(spec.IDs[0]), Token: spec.Tokens[0]}
	}
	return postprocessors.TemplateProcessing{
		Single:        convertTemplate(pp.Single),
		Pair:          convertTemplate(pp.Pair),
		SpecialTokens: specs,
	}, nil
}

// modelWithAddedTokens extends a segmentation Model's TokenToID/IDToToken/
// VocabSize with the tokenizer's added-tokens table, so decoding an id
// produced by the added-token router (e.g. [CLS]) resolves correctly even
// though the underlying BPE/WordPiece/Unigram model never saw it.
type modelWithAddedTokens struct {
	tokenizer.Model
	added  map[string]uint32
	addedR map[uint32]string
}

func (m *modelWithAddedTokens) TokenToID(token string) (uint32, bool) {
	if id, ok := m.added[token]; ok {
		return id, true
	}
	return m.Model.TokenToID(token)
}

func (m *modelWithAddedTokens) IDToToken(id uint32) (string, bool) {
	if tok, ok := m.addedR[id]; ok {
		return tok, true
	}
	return m.Model.IDToToken(id)
}

func (m *modelWithAddedTokens) VocabSize() int {
	return m.Model.VocabSize() + len(m.added)
}

// routerAdapter bridges package addedtoken's Router (whose Fragment/
// AddedToken types predate the pipeline's capability interfaces) to
// tokenizer.AddedTokenRouter.
type routerAdapter struct {
	r *addedtoken.Router
}

func (a routerAdapter) Split(ns *normstring.NormalizedString) ([]tokenizer.Fragment, error) {
	frags, err := a.r.Split(ns)
	if err != nil {
		return nil, err
	}
	out := make([]tokenizer.Fragment, len(frags))
	for i, f := range frags {
		var tagged *tokenizer.TaggedToken
		if f.Token != nil {
			tt := tokenizer.TaggedToken{
				Token:     tokenizer.Token{ID: f.Token.ID, Value: f.Token.Content},
				IsSpecial: f.Token.Special,
			}
			tagged = &tt
		}
		out[i] = tokenizer.Fragment{Text: f.Text, Token: tagged}
	}
	return out, nil
}

func (a routerAdapter) Lookup(content string) (tokenizer.TaggedToken, bool) {
	t, ok := a.r.Lookup(content)
	if !ok {
		return tokenizer.TaggedToken{}, false
	}
	return tokenizer.TaggedToken{
		Token:     tokenizer.Token{ID: t.ID, Value: t.Content},
		IsSpecial: t.Special,
	}, true
}

// Tokenizer implements the api.Tokenizer interface for HuggingFace tokenizer.json files.
type Tokenizer struct {
	config    *api.Config
	tokenizer *TokenizerJSON
	pipeline  *tokenizer.Pipeline

	modelVocab map[string]int // model vocabulary only: token -> id
	idToToken  map[int]string // model vocabulary plus added tokens: id -> token

	// Special token IDs
	unkID  int
	padID  int
	bosID  int
	eosID  int
	clsID  int
	sepID  int
	maskID int

	// Added tokens lookup (content -> id)
	addedTokens map[string]int
}

// Compile time assert that Tokenizer implements api.Tokenizer interface.
var _ api.Tokenizer = &Tokenizer{}

// Compile time assert that Tokenizer implements api.TokenizerWithOffsets interface.
var _ api.TokenizerWithOffsets = &Tokenizer{}

// New creates a HuggingFace tokenizer from the tokenizer.json file.
// Its signature matches sentencepiece.New.
func New(config *api.Config, repo *hub.Repo) (api.Tokenizer, error) {
	if !repo.HasFile("tokenizer.json") {
		return nil, errors.Errorf("\"tokenizer.json\" file not found in repo")
	}
	tokenizerFile, err := repo.DownloadFile(context.Background(), "tokenizer.json")
	if err != nil {
		return nil, errors.Wrapf(err, "can't download tokenizer.json file")
	}
	return NewFromFile(config, tokenizerFile)
}

// NewFromFile creates a HuggingFace tokenizer from a local tokenizer.json
// file path. Large documents are read through a memory map rather than a
// full ReadFile (see tokenizer.FromFile).
func NewFromFile(config *api.Config, filePath string) (*Tokenizer, error) {
	doc, err := tokenizer.FromFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tokenizer.json file %q", filePath)
	}
	content, err := doc.ToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "re-encoding tokenizer document")
	}
	return NewFromContent(config, content)
}

// NewFromContent creates a HuggingFace tokenizer from tokenizer.json content.
func NewFromContent(config *api.Config, content []byte) (*Tokenizer, error) {
	var tj TokenizerJSON
	if err := json.Unmarshal(content, &tj); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer.json")
	}

	model, modelVocab, err := buildModel(tj.Model)
	if err != nil {
		return nil, errors.Wrap(err, "building model")
	}

	added := make(map[string]int, len(tj.AddedTokens))
	idToToken := make(map[int]string, len(modelVocab)+len(tj.AddedTokens))
	for tok, id := range modelVocab {
		idToToken[id] = tok
	}
	router := addedtoken.NewRouter()
	for _, at := range tj.AddedTokens {
		added[at.Content] = at.ID
		idToToken[at.ID] = at.Content
		router.Add(addedtoken.AddedToken{
			Content:    at.Content,
			ID:         uint32(at.ID),
			SingleWord: at.SingleWord,
			LStrip:     at.Lstrip,
			RStrip:     at.Rstrip,
			Normalized: at.Normalized,
			Special:    at.Special,
		})
	}

	t := &Tokenizer{
		config:      config,
		tokenizer:   &tj,
		modelVocab:  modelVocab,
		idToToken:   idToToken,
		addedTokens: added,
		unkID:       -1,
		padID:       -1,
		bosID:       -1,
		eosID:       -1,
		clsID:       -1,
		sepID:       -1,
		maskID:      -1,
	}
	t.resolveSpecialTokens()

	normalizer, err := buildNormalizer(tj.Normalizer)
	if err != nil {
		return nil, err
	}
	preTokenizer, err := buildPreTokenizer(tj.PreTokenizer)
	if err != nil {
		return nil, err
	}
	decoder, err := buildDecoder(tj.Decoder)
	if err != nil {
		return nil, err
	}
	if decoder == nil {
		prefix := tj.Model.ContinuingSubwordPrefix
		if prefix == "" {
			prefix = "##"
		}
		decoder = decoders.WordPiece{Prefix: prefix}
	}
	postProcessor, err := buildPostProcessor(tj.PostProcessor)
	if err != nil {
		return nil, err
	}

	addedR := make(map[uint32]string, len(added))
	for content, id := range added {
		addedR[uint32(id)] = content
	}
	wrappedModel := &modelWithAddedTokens{
		Model:  model,
		added:  toUint32Vocab(added),
		addedR: addedR,
	}

	var aRouter tokenizer.AddedTokenRouter
	if len(tj.AddedTokens) > 0 {
		aRouter = routerAdapter{r: router}
	}

	t.pipeline = &tokenizer.Pipeline{
		Normalizer:   normalizer,
		Router:       aRouter,
		PreTokenizer: preTokenizer,
		Model:        wrappedModel,
		PostProcess:  postProcessor,
		Decoder:      decoder,
	}

	return t, nil
}

// resolveSpecialTokens maps special tokens from config to their IDs.
func (t *Tokenizer) resolveSpecialTokens() {
	if t.tokenizer.Model.UnkToken != "" {
		if id, ok := t.modelVocab[t.tokenizer.Model.UnkToken]; ok {
			t.unkID = id
		}
	}

	for _, at := range t.tokenizer.AddedTokens {
		if !at.Special {
			continue
		}
		content := at.Content
		switch {
		case content == "[UNK]" || content == "<unk>":
			t.unkID = at.ID
		case content == "[PAD]" || content == "<pad>":
			t.padID = at.ID
		case content == "[CLS]" || content == "<s>":
			t.clsID = at.ID
		case content == "[SEP]" || content == "</s>":
			t.sepID = at.ID
		case content == "[MASK]" || content == "<mask>":
			t.maskID = at.ID
		}
		if t.config != nil {
			if content == t.config.BosToken {
				t.bosID = at.ID
			}
			if content == t.config.EosToken {
				t.eosID = at.ID
			}
		}
	}

	if t.config != nil {
		if t.unkID == -1 && t.config.UnkToken != "" {
			if id, ok := t.modelVocab[t.config.UnkToken]; ok {
				t.unkID = id
			}
		}
		if t.padID == -1 && t.config.PadToken != "" {
			if id, ok := t.modelVocab[t.config.PadToken]; ok {
				t.padID = id
			}
		}
		if t.clsID == -1 && t.config.ClsToken != "" {
			if id, ok := t.modelVocab[t.config.ClsToken]; ok {
				t.clsID = id
			}
		}
		if t.sepID == -1 && t.config.SepToken != "" {
			if id, ok := t.modelVocab[t.config.SepToken]; ok {
				t.sepID = id
			}
		}
		if t.maskID == -1 && t.config.MaskToken != "" {
			if id, ok := t.modelVocab[t.config.MaskToken]; ok {
				t.maskID = id
			}
		}
		if t.bosID == -1 && t.config.BosToken != "" {
			if id, ok := t.modelVocab[t.config.BosToken]; ok {
				t.bosID = id
			}
		}
		if t.eosID == -1 && t.config.EosToken != "" {
			if id, ok := t.modelVocab[t.config.EosToken]; ok {
				t.eosID = id
			}
		}
	}
}

// Pipeline returns the underlying tokenizer.Pipeline, for callers (such as
// cmd/toktool) that need direct access to offsets, add_special_tokens, or
// batch encoding rather than the narrower api.Tokenizer surface.
func (t *Tokenizer) Pipeline() *tokenizer.Pipeline { return t.pipeline }

// Encode converts text to a sequence of token IDs.
func (t *Tokenizer) Encode(text string) []int {
	enc, err := t.pipeline.Encode(tokenizer.EncodeInput{First: text}, false)
	if err != nil {
		return nil
	}
	ids := make([]int, len(enc.IDs))
	for i, id := range enc.IDs {
		ids[i] = int(id)
	}
	return ids
}

// EncodeWithOffsets returns the text encoded into a sequence of ids along
// with their character offsets into the original text.
// It implements api.TokenizerWithOffsets.
func (t *Tokenizer) EncodeWithOffsets(text string) api.EncodingResult {
	enc, err := t.pipeline.Encode(tokenizer.EncodeInput{First: text}, false)
	if err != nil {
		return api.EncodingResult{}
	}
	ids := make([]int, len(enc.IDs))
	offsets := make([]api.TokenOffset, len(enc.IDs))
	for i, id := range enc.IDs {
		ids[i] = int(id)
		offsets[i] = api.TokenOffset{Start: enc.Offsets[i].Begin, End: enc.Offsets[i].End}
	}
	return api.EncodingResult{IDs: ids, Offsets: offsets}
}

// Decode converts a sequence of token IDs back to text.
func (t *Tokenizer) Decode(ids []int) string {
	uids := make([]uint32, len(ids))
	for i, id := range ids {
		uids[i] = uint32(id)
	}
	text, err := t.pipeline.Decode(uids, false)
	if err != nil {
		return ""
	}
	return text
}

// SpecialTokenID returns the ID for a given special token.
func (t *Tokenizer) SpecialTokenID(token api.SpecialToken) (int, error) {
	switch token {
	case api.TokUnknown:
		if t.unkID >= 0 {
			return t.unkID, nil
		}
	case api.TokPad:
		if t.padID >= 0 {
			return t.padID, nil
		}
	case api.TokBeginningOfSentence:
		if t.bosID >= 0 {
			return t.bosID, nil
		}
		if t.clsID >= 0 {
			return t.clsID, nil
		}
	case api.TokEndOfSentence:
		if t.eosID >= 0 {
			return t.eosID, nil
		}
		if t.sepID >= 0 {
			return t.sepID, nil
		}
	case api.TokMask:
		if t.maskID >= 0 {
			return t.maskID, nil
		}
	case api.TokClassification:
		if t.clsID >= 0 {
			return t.clsID, nil
		}
	}
	return 0, errors.Errorf("special token %s not found", token)
}

// VocabSize returns the size of the vocabulary.
func (t *Tokenizer) VocabSize() int {
	return len(t.modelVocab) + len(t.tokenizer.AddedTokens)
}

// GetVocab returns the full vocabulary mapping.
func (t *Tokenizer) GetVocab() map[string]int {
	vocab := make(map[string]int, len(t.modelVocab)+len(t.addedTokens))
	for k, v := range t.modelVocab {
		vocab[k] = v
	}
	for _, at := range t.tokenizer.AddedTokens {
		vocab[at.Content] = at.ID
	}
	return vocab
}

// GetTokenizerType returns the model type (WordPiece, BPE, Unigram).
func (t *Tokenizer) GetTokenizerType() string {
	return t.tokenizer.Model.Type
}

// TokenToID converts a token string to its ID.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	if id, ok := t.addedTokens[token]; ok {
		return id, true
	}
	id, ok := t.modelVocab[token]
	return id, ok
}

// IDToToken converts a token ID to its string.
func (t *Tokenizer) IDToToken(id int) (string, bool) {
	token, ok := t.idToToken[id]
	return token, ok
}

// AddedTokensList returns the list of added tokens sorted by ID.
func (t *Tokenizer) AddedTokensList() []AddedToken {
	result := make([]AddedToken, len(t.tokenizer.AddedTokens))
	copy(result, t.tokenizer.AddedTokens)
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Helper functions shared with callers that want BERT-style text cleanup
// without building a whole Tokenizer (and exercised directly by tests).

func cleanText(text string) string {
	var result strings.Builder
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
