package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario byte sequences below are reproduced verbatim from the wire-format
// walkthroughs this codec was built against.

func TestBuildConnect_S1(t *testing.T) {
	packet, err := BuildConnect(ConnectOptions{
		ClientID:     "clientid",
		CleanSession: true,
		KeepAlive:    30,
		Username:     "username",
		HasUsername:  true,
		Password:     []byte("password"),
		HasPassword:  true,
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(packet), 2)
	assert.Equal(t, byte(0x10), packet[0], "CONNECT packet type, no flags")
	assert.Equal(t, byte(40), packet[1], "remaining length")
	assert.Equal(t, byte(0xC2), packet[9], "connect flags: clean session | username | password")

	fh, n, err := ParseFixedHeaderFromBytes(packet)
	require.NoError(t, err)
	assert.Equal(t, CONNECT, fh.Type)
	assert.Equal(t, uint32(40), fh.RemainingLength)
	assert.Equal(t, len(packet), n+int(fh.RemainingLength))
}

func TestBuildConnect_PasswordWithoutUsername(t *testing.T) {
	_, err := BuildConnect(ConnectOptions{
		ClientID:    "c",
		HasPassword: true,
		Password:    []byte("p"),
	})
	assert.ErrorIs(t, err, ErrPasswordWithoutUsername)
}

func TestBuildPublish_S2_QoS0(t *testing.T) {
	packet, err := BuildPublish("tp/aa", []byte("hi"), QoS0, false, false, 0)
	require.NoError(t, err)

	expected := []byte{0x30, 0x09, 0x00, 0x05, 't', 'p', '/', 'a', 'a', 'h', 'i'}
	assert.Equal(t, expected, packet)

	topic, err := TopicOf(packet)
	require.NoError(t, err)
	assert.Equal(t, "tp/aa", topic)

	payload, err := PayloadOf(packet)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), payload)
}

func TestBuildPublish_S3_QoS2WithPacketID(t *testing.T) {
	packet, err := BuildPublish("tp/aa", []byte("x"), QoS2, false, false, 7)
	require.NoError(t, err)

	expected := []byte{0x34, 0x0A, 0x00, 0x05, 't', 'p', '/', 'a', 'a', 0x00, 0x07, 'x'}
	assert.Equal(t, expected, packet)

	pid, err := PacketIDOf(packet)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), pid)
}

func TestBuildPublish_QoS2RequiresNonZeroPacketID(t *testing.T) {
	_, err := BuildPublish("t", []byte("x"), QoS2, false, false, 0)
	assert.ErrorIs(t, err, ErrInvalidPacketIDZero)
}

func TestBuildPublish_RejectsWildcardTopic(t *testing.T) {
	_, err := BuildPublish("a/+/c", []byte("x"), QoS0, false, false, 0)
	assert.ErrorIs(t, err, ErrInvalidPublishTopicName)
}

func TestBuildPublish_DupAndRetainFlags(t *testing.T) {
	packet, err := BuildPublish("t", []byte("x"), QoS1, true, true, 5)
	require.NoError(t, err)

	assert.True(t, Dup(packet))
	assert.True(t, Retain(packet))
	assert.Equal(t, QoS1, QoSOf(packet))
}

func TestBuildSubscribe_S4(t *testing.T) {
	packet, err := BuildSubscribe(3, []SubscriptionRequest{{Filter: "test/topic", QoS: QoS2}})
	require.NoError(t, err)

	expected := []byte{0x82, 0x0F, 0x00, 0x03, 0x00, 0x0A, 't', 'e', 's', 't', '/', 't', 'o', 'p', 'i', 'c', 0x02}
	assert.Equal(t, expected, packet)

	pid, err := PacketIDOf(packet)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), pid)
}

func TestBuildSubscribe_EmptyList(t *testing.T) {
	_, err := BuildSubscribe(1, nil)
	assert.ErrorIs(t, err, ErrEmptySubscriptionList)
}

func TestBuildSubscribe_ZeroPacketID(t *testing.T) {
	_, err := BuildSubscribe(0, []SubscriptionRequest{{Filter: "a", QoS: QoS0}})
	assert.ErrorIs(t, err, ErrInvalidPacketIDZero)
}

func TestBuildUnsubscribe(t *testing.T) {
	packet, err := BuildUnsubscribe(9, []string{"a/b"})
	require.NoError(t, err)

	assert.Equal(t, byte(0xA2), packet[0])
	pid, err := PacketIDOf(packet)
	require.NoError(t, err)
	assert.Equal(t, uint16(9), pid)
}

func TestBuildPubrel_S5(t *testing.T) {
	packet := BuildPubrel(9)

	expected := []byte{0x62, 0x02, 0x00, 0x09}
	assert.Equal(t, expected, packet)

	pid, err := PacketIDOf(packet)
	require.NoError(t, err)
	assert.Equal(t, uint16(9), pid)
}

func TestBuildPuback_Pubrec_Pubcomp(t *testing.T) {
	puback := BuildPuback(11)
	assert.Equal(t, byte(0x40), puback[0])
	pid, err := PacketIDOf(puback)
	require.NoError(t, err)
	assert.Equal(t, uint16(11), pid)

	pubrec := BuildPubrec(12)
	assert.Equal(t, byte(0x50), pubrec[0])

	pubcomp := BuildPubcomp(13)
	assert.Equal(t, byte(0x70), pubcomp[0])
}

func TestBuildPingreqAndDisconnect(t *testing.T) {
	ping := BuildPingreq()
	assert.Equal(t, []byte{0xC0, 0x00}, ping)

	disconnect := BuildDisconnect()
	assert.Equal(t, []byte{0xE0, 0x00}, disconnect)
}

func TestPacket_RemainingLengthMatchesBufferLength(t *testing.T) {
	packets := map[string][]byte{
		"connect": mustConnect(t),
		"publish_qos0": mustPublish(t, "tp/aa", []byte("hi"), QoS0, 0),
		"publish_qos2": mustPublish(t, "tp/aa", []byte("x"), QoS2, 7),
		"subscribe":    mustSubscribe(t),
		"pubrel":       BuildPubrel(9),
	}

	for name, packet := range packets {
		t.Run(name, func(t *testing.T) {
			_, varintLen, err := DecodeVarintFromBytes(packet[1:])
			require.NoError(t, err)

			fh, headerLen, err := ParseFixedHeaderFromBytes(packet)
			require.NoError(t, err)
			assert.Equal(t, 1+varintLen, headerLen)
			assert.Equal(t, len(packet)-headerLen, int(fh.RemainingLength),
				"remaining length field must equal buffer length minus fixed header size")
		})
	}
}

func TestType_RejectsReservedAndOutOfRange(t *testing.T) {
	_, err := Type([]byte{0x00})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = Type([]byte{0xF0})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestConnackCode_ExtractsSessionPresentAndReturnCode(t *testing.T) {
	packet := []byte{byte(CONNACK) << 4, 2, 0x01, 0x00}
	sessionPresent, rc, err := ConnackCode(packet)
	require.NoError(t, err)
	assert.True(t, sessionPresent)
	assert.Equal(t, byte(0x00), rc)

	refused := []byte{byte(CONNACK) << 4, 2, 0x00, 0x05}
	sessionPresent, rc, err = ConnackCode(refused)
	require.NoError(t, err)
	assert.False(t, sessionPresent)
	assert.Equal(t, byte(0x05), rc)
}

func mustConnect(t *testing.T) []byte {
	t.Helper()
	p, err := BuildConnect(ConnectOptions{ClientID: "c", CleanSession: true, KeepAlive: 10})
	require.NoError(t, err)
	return p
}

func mustPublish(t *testing.T, topic string, payload []byte, qos QoS, pid uint16) []byte {
	t.Helper()
	p, err := BuildPublish(topic, payload, qos, false, false, pid)
	require.NoError(t, err)
	return p
}

func mustSubscribe(t *testing.T) []byte {
	t.Helper()
	p, err := BuildSubscribe(3, []SubscriptionRequest{{Filter: "test/topic", QoS: QoS2}})
	require.NoError(t, err)
	return p
}
