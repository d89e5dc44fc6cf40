package system34

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sergev/floppyimg/bitstream"
	"github.com/sergev/floppyimg/chs"
)

// formatAndScan runs the full format -> encode -> scan pipeline and
// returns the resulting codec and metadata, mirroring what
// TrackData.Format does for a BitStream track.
func formatAndScan(t *testing.T, sectors []chs.CHSN, fill byte, gap3 int) (*bitstream.MfmCodec, []MetadataItem) {
	t.Helper()
	const capacityCells = 200000
	trackBytes, fmtMarkers := FormatTrackAsBytes(sectors, capacityCells, fill, gap3)

	codec := bitstream.NewMfmCodec(make([]byte, (capacityCells+7)/8), nil)
	require.NoError(t, codec.WriteBuf(trackBytes, 0))
	require.NoError(t, SetTrackMarkers(codec, fmtMarkers))

	markers := ScanTrackMarkers(codec)
	CreateClockMap(codec, markers)
	items := ScanTrackMetadata(codec, markers)
	return codec, items
}

func TestFormatScanIdempotence(t *testing.T) {
	sectors := []chs.CHSN{
		{Cylinder: 3, Head: 0, Sector: 1, N: 2},
		{Cylinder: 3, Head: 0, Sector: 2, N: 2},
		{Cylinder: 3, Head: 0, Sector: 3, N: 2},
	}
	_, items := formatAndScan(t, sectors, 0xF6, 80)

	var idams, datas int
	wantIdx := 0
	for _, it := range items {
		switch it.Kind {
		case ElemIdam:
			idams++
			require.Truef(t, it.AddressCRCValid, "IDAM %d: address CRC invalid", idams)
			require.Equalf(t, sectors[wantIdx], *it.CHSN, "IDAM %d chsn", idams)
		case ElemData:
			datas++
			require.Truef(t, it.DataCRCValid, "Data %d: data CRC invalid", datas)
			require.Equalf(t, sectors[wantIdx], *it.CHSN, "Data %d chsn", datas)
			wantIdx++
		}
	}
	require.Equal(t, len(sectors), idams, "IDAM count")
	require.Equal(t, len(sectors), datas, "Data count")
}

func TestCRCCCITTVectorMatchesScannedIdam(t *testing.T) {
	sectors := []chs.CHSN{{Cylinder: 0, Head: 0, Sector: 1, N: 0}}
	_, items := formatAndScan(t, sectors, 0x00, 40)

	crc := bitstream.CRC16CCITT(bitstream.CRCSeed, []byte{0xA1, 0xA1, 0xA1, 0xFE, 0x00, 0x00, 0x01, 0x00})
	require.Equal(t, crc, ComputeAddressCRC([4]byte{0x00, 0x00, 0x01, 0x00}),
		"address CRC helper disagrees with the raw incremental computation")

	var sawIdam bool
	for _, it := range items {
		if it.Kind == ElemIdam {
			sawIdam = true
			require.True(t, it.AddressCRCValid, "scanned IDAM CRC does not validate")
		}
	}
	require.True(t, sawIdam, "expected an IDAM item")
}

func TestScanTrackMarkersFindsIamIdamDam(t *testing.T) {
	sectors := []chs.CHSN{{Cylinder: 0, Head: 0, Sector: 1, N: 2}}
	codec, _ := formatAndScan(t, sectors, 0x00, 40)
	markers := ScanTrackMarkers(codec)

	var kinds []MarkerKind
	for _, m := range markers {
		kinds = append(kinds, m.Kind)
	}
	require.Lenf(t, kinds, 3, "expected IAM+IDAM+DAM (3 markers) for 1 sector, got %v", kinds)
	require.Equal(t, []MarkerKind{IAM, IDAM, DAM}, kinds, "unexpected marker order")
}

func TestOrphanIdamRecordedAddressValidOnly(t *testing.T) {
	// Build a track with a lone IDAM and no following DAM.
	const capacityCells = 20000
	trackBytes, markers := FormatTrackAsBytes(nil, capacityCells, 0x00, 0)

	trackBytes = append(trackBytes, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0) // sync
	idamOffset := len(trackBytes)
	hdr := []byte{0, 0, 1, 0}
	crc := bitstream.CRC16CCITT(bitstream.CRCSeed, []byte{0xA1, 0xA1, 0xA1, 0xFE})
	crc = bitstream.CRC16CCITT(crc, hdr)
	trackBytes = append(trackBytes, 0xA1, 0xA1, 0xA1, 0xFE)
	trackBytes = append(trackBytes, hdr...)
	trackBytes = append(trackBytes, byte(crc>>8), byte(crc))

	codec := bitstream.NewMfmCodec(make([]byte, (capacityCells+7)/8+len(trackBytes)), nil)
	require.NoError(t, codec.WriteBuf(trackBytes, 0))
	markers = append(markers, Marker{Kind: IDAM, CellOffset: idamOffset * bitstream.CellsPerDecodedByte})
	require.NoError(t, SetTrackMarkers(codec, markers))

	found := ScanTrackMarkers(codec)
	CreateClockMap(codec, found)
	items := ScanTrackMetadata(codec, found)

	var sawOrphan bool
	for _, it := range items {
		if it.Kind == ElemIdam && it.CHSN.Sector == 1 {
			sawOrphan = true
			require.True(t, it.AddressCRCValid, "orphan IDAM should still have a valid address CRC")
		}
		require.NotContainsf(t, []ElemKind{ElemData, ElemDeletedData}, it.Kind,
			"orphan IDAM must not produce a data item")
	}
	require.True(t, sawOrphan, "expected to find the orphan IDAM in metadata")
}

// TestOversizeIdamNRejectedNotScanned checks that an
// IDAM whose size code N exceeds chs.MaxN can never reach a payload
// allocation: scanIdam must flag its address CRC invalid, and scanData
// must refuse to size a Data field off it, rather than overflowing
// chs.NToBytes.
func TestOversizeIdamNRejectedNotScanned(t *testing.T) {
	const capacityCells = 20000
	trackBytes, markers := FormatTrackAsBytes(nil, capacityCells, 0x00, 0)

	trackBytes = append(trackBytes, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0) // sync
	idamOffset := len(trackBytes)
	hdr := []byte{0, 0, 1, 56} // N=56: 128<<56 overflows int64 to negative
	crc := bitstream.CRC16CCITT(bitstream.CRCSeed, []byte{0xA1, 0xA1, 0xA1, 0xFE})
	crc = bitstream.CRC16CCITT(crc, hdr)
	trackBytes = append(trackBytes, 0xA1, 0xA1, 0xA1, 0xFE)
	trackBytes = append(trackBytes, hdr...)
	trackBytes = append(trackBytes, byte(crc>>8), byte(crc))

	dataHdr := []byte{0x00, 0x00, 0x00, 0x00}
	dataCrc := bitstream.CRC16CCITT(bitstream.CRCSeed, []byte{0xA1, 0xA1, 0xA1, 0xFB})
	dataCrc = bitstream.CRC16CCITT(dataCrc, dataHdr)
	damOffset := len(trackBytes)
	trackBytes = append(trackBytes, 0xA1, 0xA1, 0xA1, 0xFB)
	trackBytes = append(trackBytes, dataHdr...)
	trackBytes = append(trackBytes, byte(dataCrc>>8), byte(dataCrc))

	codec := bitstream.NewMfmCodec(make([]byte, (capacityCells+7)/8+len(trackBytes)), nil)
	require.NoError(t, codec.WriteBuf(trackBytes, 0))
	markers = append(markers,
		Marker{Kind: IDAM, CellOffset: idamOffset * bitstream.CellsPerDecodedByte},
		Marker{Kind: DAM, CellOffset: damOffset * bitstream.CellsPerDecodedByte},
	)
	require.NoError(t, SetTrackMarkers(codec, markers))

	found := ScanTrackMarkers(codec)
	CreateClockMap(codec, found)

	require.NotPanics(t, func() {
		items := ScanTrackMetadata(codec, found)
		for _, it := range items {
			if it.Kind == ElemIdam && it.CHSN.N == 56 {
				require.False(t, it.AddressCRCValid, "oversize-N IDAM must be flagged address-invalid")
			}
			require.NotEqualf(t, ElemData, it.Kind, "an oversize-N IDAM must not produce a scanned Data item")
		}
	})
}
