package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/al-chunker/internal/alparse"
	"github.com/dshills/al-chunker/pkg/al"
)

func parseOne(t *testing.T, src, filePath string) al.Object {
	t.Helper()
	result := alparse.New().ParseSource(src, filePath)
	require.False(t, result.HasDiagnostics(), "diagnostics: %+v", result.Diagnostics)
	require.Len(t, result.Objects, 1)
	return result.Objects[0]
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New())
}

// S1 — a small enum is emitted whole.
func TestChunkObject_SmallEnumStaysWhole(t *testing.T) {
	src := `enum 50100 "Customer Loyalty"
{
    Extensible = true;

    value(0; None)
    {
        Caption = 'None';
    }
    value(1; Gold)
    {
        Caption = 'Gold';
    }
}
`
	obj := parseOne(t, src, "loyalty.al")
	chunks := New().ChunkObject(obj, "loyalty.al", DefaultConfig())

	require.Len(t, chunks, 1)
	c := chunks[0]
	assert.Equal(t, string(al.ChunkWholeObject), c.Metadata.ChunkType)
	assert.Equal(t, "enum", c.Metadata.ObjectType)
	assert.Equal(t, 50100, c.Metadata.ObjectID)
	assert.Equal(t, "Customer Loyalty", c.Metadata.ObjectName)
	assert.Equal(t, obj.SourceText, c.Content)
	assert.Equal(t, al.EstimateTokens(obj.SourceText), c.TokenEstimate)
	require.NoError(t, c.Validate())
}

// S2 — a large codeunit (>1500 chars, ≥10 procedures/triggers) splits under
// the default config into a header chunk, zero section chunks (codeunits
// have no sections), and one chunk per top-level procedure/trigger. The
// local OnAfterInsertCustomer event subscriber keeps its [EventSubscriber(
// attribute and procedure_name.
func TestChunkObject_LargeCodeunitSplitsPerProcedure(t *testing.T) {
	src := `codeunit 50104 "Address Management"
{
    trigger OnRun()
    begin
        Message('Address Management codeunit');
    end;

    procedure ValidateAddress(var Address: Record "Customer Address"): Boolean
    begin
        if Address.City = '' then
            exit(false);
        exit(true);
    end;

    procedure NormalizePostCode(PostCode: Text[20]): Text[20]
    begin
        exit(DelChr(PostCode, '<>', ' '));
    end;

    procedure GetFormattedAddress(var Address: Record "Customer Address"): Text[250]
    var
        Result: Text[250];
    begin
        Result := Address.City + ', ' + Address."Post Code";
        exit(Result);
    end;

    procedure BatchValidateAddresses(var Addresses: Record "Customer Address"): Integer
    var
        FailCount: Integer;
    begin
        if Addresses.FindSet() then
            repeat
                if not ValidateAddress(Addresses) then
                    FailCount += 1;
            until Addresses.Next() = 0;
        exit(FailCount);
    end;

    internal procedure LogAddressChange(CustomerNo: Code[20]; ChangeText: Text[100])
    begin
        Message('%1: %2', CustomerNo, ChangeText);
    end;

    [EventSubscriber(ObjectType::Table, Database::Customer, 'OnAfterInsertEvent', '', true, true)]
    local procedure OnAfterInsertCustomer(var Rec: Record Customer)
    begin
        LogAddressChange(Rec."No.", 'Customer inserted');
    end;

    procedure IsValidCountryCode(CountryCode: Code[10]): Boolean
    begin
        exit(CountryCode <> '');
    end;

    procedure FormatPostalAddress(var Address: Record "Customer Address"): Text[250]
    begin
        exit(GetFormattedAddress(Address));
    end;

    procedure ClearAddressCache()
    begin
        Message('Address cache cleared');
    end;
}
`
	obj := parseOne(t, src, "addrmgmt.al")
	require.Greater(t, len(obj.SourceText), 1500)
	require.GreaterOrEqual(t, len(obj.Procedures), 10)

	chunks := New().ChunkObject(obj, "addrmgmt.al", DefaultConfig())

	require.GreaterOrEqual(t, len(chunks), 1+len(obj.Procedures))
	assert.Equal(t, string(al.ChunkHeader), chunks[0].Metadata.ChunkType)

	var sectionChunks, procOrTriggerChunks int
	var subscriber *al.Chunk
	for i := range chunks {
		c := &chunks[i]
		switch c.Metadata.ChunkType {
		case string(al.ChunkSection):
			sectionChunks++
		case string(al.ChunkProcedure), string(al.ChunkTrigger):
			procOrTriggerChunks++
		}
		if c.Metadata.ProcedureName == "OnAfterInsertCustomer" {
			subscriber = c
		}
	}
	assert.Zero(t, sectionChunks, "a codeunit has no sections")
	assert.GreaterOrEqual(t, procOrTriggerChunks, 10)

	require.NotNil(t, subscriber, "expected a chunk for OnAfterInsertCustomer")
	assert.Equal(t, string(al.ChunkProcedure), subscriber.Metadata.ChunkType)
	require.NotEmpty(t, subscriber.Metadata.Attributes)
	assert.True(t, strings.HasPrefix(subscriber.Metadata.Attributes[0], "[EventSubscriber("),
		"attributes[0] = %q", subscriber.Metadata.Attributes[0])
}

// S3 — a small max_chunk_chars forces a table with triggers and a local
// procedure to split into header, section, and procedure/trigger chunks, in
// that order.
func TestChunkObject_TableWithTriggersSplits(t *testing.T) {
	src := `table 50101 "Customer Address"
{
    Caption = 'Customer Address';
    DataPerCompany = true;

    fields
    {
        field(1; "Entry No."; Integer) { }
        field(2; City; Text[50]) { }
    }
    keys
    {
        key(PK; "Entry No.") { Clustered = true; }
    }

    trigger OnInsert()
    begin
        ValidateCity();
    end;

    trigger OnModify()
    begin
        ValidateCity();
    end;

    local procedure ValidateCity()
    begin
        if City = '' then
            Error('City must not be blank');
    end;
}
`
	obj := parseOne(t, src, "custaddr.al")
	cfg := DefaultConfig()
	cfg.MaxChunkChars = 400
	chunks := New().ChunkObject(obj, "custaddr.al", cfg)

	require.Len(t, chunks, 6)
	assert.Equal(t, string(al.ChunkHeader), chunks[0].Metadata.ChunkType)
	assert.Contains(t, chunks[0].Content, "Caption")
	assert.Contains(t, chunks[0].Content, "DataPerCompany")
	assert.NotContains(t, chunks[0].Content, "fields")

	assert.Equal(t, string(al.ChunkSection), chunks[1].Metadata.ChunkType)
	assert.Equal(t, "fields", chunks[1].Metadata.SectionName)
	assert.Equal(t, string(al.ChunkSection), chunks[2].Metadata.ChunkType)
	assert.Equal(t, "keys", chunks[2].Metadata.SectionName)

	assert.Equal(t, string(al.ChunkTrigger), chunks[3].Metadata.ChunkType)
	assert.Equal(t, "OnInsert", chunks[3].Metadata.ProcedureName)
	assert.Equal(t, string(al.ChunkTrigger), chunks[4].Metadata.ChunkType)
	assert.Equal(t, "OnModify", chunks[4].Metadata.ProcedureName)
	assert.Equal(t, string(al.ChunkProcedure), chunks[5].Metadata.ChunkType)
	assert.Equal(t, "ValidateCity", chunks[5].Metadata.ProcedureName)

	for _, c := range chunks {
		assert.Contains(t, c.Content, "// Object: table 50101 \"Customer Address\"")
		assert.Contains(t, c.Content, "// File: custaddr.al")
		require.NoError(t, c.Validate())
	}
}

// S4 — interface with no id; it fits under the default size gate, so it
// stays a single whole_object chunk, but object_id must read 0.
func TestChunkObject_InterfaceHasNoID(t *testing.T) {
	src := `interface "IAddress Provider"
{
    procedure GetAddress(customerNo: Code[20]): Text[250];
    procedure SetAddress(customerNo: Code[20]; address: Text[250]);
    procedure ClearAddress(customerNo: Code[20]);
}
`
	obj := parseOne(t, src, "iaddress.al")
	chunks := New().ChunkObject(obj, "iaddress.al", DefaultConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "interface", chunks[0].Metadata.ObjectType)
	assert.Equal(t, 0, chunks[0].Metadata.ObjectID)
}

// S6 — multiple objects in one file: chunk_file concatenates chunk_object
// over every parsed object, and every chunk shares the file's hash.
func TestChunkFile_MultipleObjectsShareFileHash(t *testing.T) {
	src := `enum 50102 "Sales Status"
{
    value(0; Open) { }
}

codeunit 50103 "Sales Helper"
{
    procedure IsOpen(): Boolean
    begin
        exit(true);
    end;
}
`
	chunks, result := New().ChunkFile(src, "multi.al", DefaultConfig())
	require.False(t, result.HasDiagnostics())
	require.Len(t, chunks, 2)
	assert.Equal(t, "enum", chunks[0].Metadata.ObjectType)
	assert.Equal(t, "codeunit", chunks[1].Metadata.ObjectType)
	assert.Equal(t, chunks[0].Metadata.FileHash, chunks[1].Metadata.FileHash)
}

// Property 9 — an object whose source_text length equals max_chunk_chars
// emits exactly one whole_object chunk.
func TestChunkObject_SizeEqualToMax_StaysWhole(t *testing.T) {
	obj := parseOne(t, boundaryFixture, "boundary.al")

	cfg := DefaultConfig()
	cfg.MaxChunkChars = len(obj.SourceText)
	chunks := New().ChunkObject(obj, "boundary.al", cfg)

	require.Len(t, chunks, 1)
	assert.Equal(t, string(al.ChunkWholeObject), chunks[0].Metadata.ChunkType)
}

// Property 10 — one character over max_chunk_chars forces a header plus at
// least one other chunk.
func TestChunkObject_SizeOverMax_SplitsWithHeader(t *testing.T) {
	obj := parseOne(t, boundaryFixture, "boundary.al")

	cfg := DefaultConfig()
	cfg.MaxChunkChars = len(obj.SourceText) - 1
	chunks := New().ChunkObject(obj, "boundary.al", cfg)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, string(al.ChunkHeader), chunks[0].Metadata.ChunkType)
}

const boundaryFixture = `codeunit 50110 "Boundary Test"
{
    procedure DoThing()
    begin
        Message('hi');
    end;
}
`

// Property 11, at the grouping level — no sub-blocks yield no groups (the
// caller then emits the section whole); a single oversize sub-block is one
// group; two sub-blocks that together exceed maxChars are two groups, and
// two that fit are one.
func TestGroupSectionChildren_Boundaries(t *testing.T) {
	assert.Empty(t, groupSectionChildren(nil, 100))

	one := groupSectionChildren([]string{`field(1; "Entry No."; Integer) { }`}, 5)
	require.Len(t, one, 1)

	two := groupSectionChildren([]string{
		`field(1; "Entry No."; Integer) { }`,
		`field(2; City; Text[50]) { }`,
	}, 10)
	require.Len(t, two, 2)

	fitsTogether := groupSectionChildren([]string{
		`field(1; A; Integer) { }`,
		`field(2; B; Integer) { }`,
	}, 1000)
	require.Len(t, fitsTogether, 1)
}

func TestSplitSectionChildren_FindsEachBlock(t *testing.T) {
	body := `
        field(1; "Entry No."; Integer) { }
        field(2; City; Text[50]) { AllowBlank = false; }
    `
	children := splitSectionChildren(body)
	require.Len(t, children, 2)
	assert.Contains(t, children[0], `"Entry No."`)
	assert.Contains(t, children[1], "AllowBlank")
}

func TestSplitSectionChildren_NoMatchesReturnsEmpty(t *testing.T) {
	assert.Empty(t, splitSectionChildren("just some free text, no blocks here;"))
}

func TestBuildAppMetadataChunk_Valid(t *testing.T) {
	raw := `{
        "name": "Customer Extensions",
        "publisher": "Contoso",
        "version": "1.2.3.0",
        "id": "11111111-2222-3333-4444-555555555555",
        "dependencies": [
            {"name": "Base Application", "publisher": "Microsoft", "version": "22.0.0.0"}
        ]
    }`
	chunk, err := BuildAppMetadataChunk(raw, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, chunk)
	assert.Equal(t, "app_metadata", chunk.Metadata.ChunkType)
	assert.Equal(t, "Customer Extensions", chunk.Metadata.ObjectName)
	assert.Contains(t, chunk.Content, "// Name: Customer Extensions")
	assert.Contains(t, chunk.Content, "// Publisher: Contoso")
	assert.Contains(t, chunk.Content, `"Base Application" by Microsoft (22.0.0.0)`)
	assert.Equal(t, al.EstimateTokens(chunk.Content), chunk.TokenEstimate)
}

func TestBuildAppMetadataChunk_InvalidJSON(t *testing.T) {
	chunk, err := BuildAppMetadataChunk("not json", DefaultConfig())
	require.Error(t, err)
	assert.Nil(t, chunk)
}

func TestBuildAppMetadataChunk_NoName_FallsBackToApp(t *testing.T) {
	chunk, err := BuildAppMetadataChunk(`{"publisher": "Contoso"}`, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "app", chunk.Metadata.ObjectName)
}
