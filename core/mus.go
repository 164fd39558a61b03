package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persistent domain types. Written against mus-go
// directly; field order must match the struct definitions in models.go.
var (
	IDMUS            = idMUS{}
	AccessLevelMUS   = accessLevelMUS{}
	QualityScoresMUS = qualityScoresMUS{}
	ChunkMUS         = chunkMUS{}

	topicsMUS = ord.NewSliceSer[string](ord.String)
	vectorMUS = ord.NewSliceSer[float32](varint.Float32)
)

var (
	_ mus.Serializer[ID]            = IDMUS
	_ mus.Serializer[AccessLevel]   = AccessLevelMUS
	_ mus.Serializer[QualityScores] = QualityScoresMUS
	_ mus.Serializer[Chunk]         = ChunkMUS
)

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	num, n, err := varint.Uint64.Unmarshal(bs)
	return ID(num), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type accessLevelMUS struct{}

func (s accessLevelMUS) Marshal(v AccessLevel, bs []byte) (n int) {
	return varint.Int.Marshal(int(v), bs)
}

func (s accessLevelMUS) Unmarshal(bs []byte) (v AccessLevel, n int, err error) {
	num, n, err := varint.Int.Unmarshal(bs)
	return AccessLevel(num), n, err
}

func (s accessLevelMUS) Size(v AccessLevel) (size int) {
	return varint.Int.Size(int(v))
}

func (s accessLevelMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int.Skip(bs)
}

type qualityScoresMUS struct{}

func (s qualityScoresMUS) Marshal(v QualityScores, bs []byte) (n int) {
	n = varint.Float64.Marshal(v.CodeQuality, bs)
	n += varint.Float64.Marshal(v.Formatting, bs[n:])
	n += varint.Float64.Marshal(v.Metadata, bs[n:])
	n += varint.Float64.Marshal(v.Initialization, bs[n:])
	return n
}

func (s qualityScoresMUS) Unmarshal(bs []byte) (v QualityScores, n int, err error) {
	var n1 int
	if v.CodeQuality, n, err = varint.Float64.Unmarshal(bs); err != nil {
		return
	}
	if v.Formatting, n1, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Metadata, n1, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.Initialization, n1, err = varint.Float64.Unmarshal(bs[n:])
	return v, n + n1, err
}

func (s qualityScoresMUS) Size(v QualityScores) (size int) {
	size = varint.Float64.Size(v.CodeQuality)
	size += varint.Float64.Size(v.Formatting)
	size += varint.Float64.Size(v.Metadata)
	size += varint.Float64.Size(v.Initialization)
	return size
}

func (s qualityScoresMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 4; i++ {
		if n1, err = varint.Float64.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	return n, nil
}

type chunkMUS struct{}

func (s chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.DocumentID, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	n += ord.String.Marshal(v.Source, bs[n:])
	n += ord.String.Marshal(v.LibraryID, bs[n:])
	n += ord.String.Marshal(v.Version, bs[n:])
	n += topicsMUS.Marshal(v.Topics, bs[n:])
	n += ord.Bool.Marshal(v.IsCodeSnippet, bs[n:])
	n += ord.String.Marshal(v.CodeLanguage, bs[n:])
	n += AccessLevelMUS.Marshal(v.Access, bs[n:])
	n += ord.String.Marshal(v.Enrichment, bs[n:])
	n += QualityScoresMUS.Marshal(v.Quality, bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (s chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	strFields := []*string{
		&v.DocumentID, &v.Content, &v.Title, &v.URL, &v.Source,
		&v.LibraryID, &v.Version,
	}
	for _, field := range strFields {
		if *field, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return v, n + n1, err
		}
		n += n1
	}
	if v.Topics, n1, err = topicsMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.IsCodeSnippet, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.CodeLanguage, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Access, n1, err = AccessLevelMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Enrichment, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Quality, n1, err = QualityScoresMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	var inserted, updated int64
	if inserted, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	if updated, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + n1, err
	}
	n += n1
	v.InsertedAt = time.UnixMicro(inserted).UTC()
	v.UpdatedAt = time.UnixMicro(updated).UTC()
	return v, n, nil
}

func (s chunkMUS) Size(v Chunk) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.DocumentID)
	size += ord.String.Size(v.Content)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.URL)
	size += ord.String.Size(v.Source)
	size += ord.String.Size(v.LibraryID)
	size += ord.String.Size(v.Version)
	size += topicsMUS.Size(v.Topics)
	size += ord.Bool.Size(v.IsCodeSnippet)
	size += ord.String.Size(v.CodeLanguage)
	size += AccessLevelMUS.Size(v.Access)
	size += ord.String.Size(v.Enrichment)
	size += QualityScoresMUS.Size(v.Quality)
	size += vectorMUS.Size(v.Vector)
	size += varint.Int64.Size(v.InsertedAt.UnixMicro())
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return size
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	v, n, err := s.Unmarshal(bs)
	_ = v
	return n, err
}
