package conf

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/masterstream/masterstream/internal/logger"
)

func createTempFile(byts []byte) (string, error) {
	tmpf, err := os.CreateTemp(os.TempDir(), "masterstream-")
	if err != nil {
		return "", err
	}
	defer tmpf.Close()

	_, err = tmpf.Write(byts)
	if err != nil {
		return "", err
	}

	return tmpf.Name(), nil
}

func TestConfFromFile(t *testing.T) {
	tmpf, err := createTempFile([]byte(
		"logLevel: debug\n" +
			"rtmpAddress: :2121\n" +
			"rtmpChunkSize: 65536\n" +
			"readTimeout: 20s\n" +
			"writeQueueSize: 1024\n"))
	require.NoError(t, err)
	defer os.Remove(tmpf)

	conf, confPath, err := Load(tmpf, nil)
	require.NoError(t, err)
	require.Equal(t, tmpf, confPath)

	require.Equal(t, LogLevel(logger.Debug), conf.LogLevel)
	require.Equal(t, ":2121", conf.RTMPAddress)
	require.Equal(t, 65536, conf.RTMPChunkSize)
	require.Equal(t, 20*Duration(time.Second), conf.ReadTimeout)
	require.Equal(t, 1024, conf.WriteQueueSize)

	// unset parameters keep their default value
	require.Equal(t, true, conf.RTMP)
	require.Equal(t, StringSize(10*1024*1024), conf.RTMPMaxMessageSize)
	require.Equal(t, 5*Duration(time.Second), conf.HandshakeTimeout)
}

func TestConfFromFileEmpty(t *testing.T) {
	tmpf, err := createTempFile([]byte(``))
	require.NoError(t, err)
	defer os.Remove(tmpf)

	conf, _, err := Load(tmpf, nil)
	require.NoError(t, err)
	require.Equal(t, ":1935", conf.RTMPAddress)
}

func TestConfNoFile(t *testing.T) {
	conf, confPath, err := Load("", []string{"/nonexistent/masterstream.yml"})
	require.NoError(t, err)
	require.Equal(t, "", confPath)

	require.Equal(t, LogLevel(logger.Info), conf.LogLevel)
	require.Equal(t, LogDestinations{LogDestination(logger.DestinationStdout)}, conf.LogDestinations)
	require.Equal(t, "masterstream.log", conf.LogFile)
	require.Equal(t, 10*Duration(time.Second), conf.ReadTimeout)
	require.Equal(t, 10*Duration(time.Second), conf.WriteTimeout)
	require.Equal(t, 512, conf.WriteQueueSize)
	require.Equal(t, "127.0.0.1:9998", conf.MetricsAddress)
	require.Equal(t, "127.0.0.1:9999", conf.PPROFAddress)
	require.Equal(t, ":1935", conf.RTMPAddress)
	require.Equal(t, 4096, conf.RTMPChunkSize)
}

func TestConfFromEnv(t *testing.T) {
	// string
	t.Setenv("MSTR_RUNONPUBLISH", "test=cmd")

	// int
	t.Setenv("MSTR_RTMPCHUNKSIZE", "512")

	// bool
	t.Setenv("MSTR_METRICS", "yes")

	// duration
	t.Setenv("MSTR_READTIMEOUT", "22s")

	// custom types
	t.Setenv("MSTR_LOGDESTINATIONS", "stdout,file")
	t.Setenv("MSTR_RTMPMAXMESSAGESIZE", "7M")

	tmpf, err := createTempFile([]byte("{}"))
	require.NoError(t, err)
	defer os.Remove(tmpf)

	conf, _, err := Load(tmpf, nil)
	require.NoError(t, err)

	require.Equal(t, "test=cmd", conf.RunOnPublish)
	require.Equal(t, 512, conf.RTMPChunkSize)
	require.Equal(t, true, conf.Metrics)
	require.Equal(t, 22*Duration(time.Second), conf.ReadTimeout)
	require.Equal(t, LogDestinations{
		LogDestination(logger.DestinationStdout),
		LogDestination(logger.DestinationFile),
	}, conf.LogDestinations)
	require.Equal(t, StringSize(7*1024*1024), conf.RTMPMaxMessageSize)
}

func TestConfEncryption(t *testing.T) {
	key := "testing123testin"
	plaintext := "logLevel: debug\n" +
		"rtmpAddress: :2121\n"

	encryptedConf := func() string {
		var secretKey [32]byte
		copy(secretKey[:], key)

		var nonce [24]byte
		_, err := io.ReadFull(rand.Reader, nonce[:])
		require.NoError(t, err)

		encrypted := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &secretKey)
		return base64.StdEncoding.EncodeToString(encrypted)
	}()

	t.Setenv("MSTR_CONFKEY", key)

	tmpf, err := createTempFile([]byte(encryptedConf))
	require.NoError(t, err)
	defer os.Remove(tmpf)

	conf, _, err := Load(tmpf, nil)
	require.NoError(t, err)
	require.Equal(t, LogLevel(logger.Debug), conf.LogLevel)
	require.Equal(t, ":2121", conf.RTMPAddress)
}

func TestConfErrors(t *testing.T) {
	for _, ca := range []struct {
		name string
		conf string
		err  string
	}{
		{
			"invalid log level",
			"logLevel: invalid\n",
			"invalid log level: 'invalid'",
		},
		{
			"invalid log destination",
			"logDestinations: [invalid]\n",
			"invalid log destination: 'invalid'",
		},
		{
			"non existent parameter",
			"invalid: param\n",
			"json: unknown field \"invalid\"",
		},
		{
			"invalid read timeout",
			"readTimeout: 0s\n",
			"'readTimeout' must be greater than zero",
		},
		{
			"invalid write queue size",
			"writeQueueSize: 1000\n",
			"'writeQueueSize' must be a power of two",
		},
		{
			"invalid chunk size",
			"rtmpChunkSize: 64\n",
			"'rtmpChunkSize' must be between 128 and 10485760",
		},
		{
			"invalid rtmp address",
			"rtmpAddress: invalid\n",
			"'rtmpAddress' is invalid",
		},
		{
			"invalid metrics address",
			"metrics: yes\n" +
				"metricsAddress: invalid\n",
			"'metricsAddress' is invalid",
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			tmpf, err := createTempFile([]byte(ca.conf))
			require.NoError(t, err)
			defer os.Remove(tmpf)

			_, _, err = Load(tmpf, nil)
			require.EqualError(t, err, ca.err)
		})
	}
}

func TestConfClone(t *testing.T) {
	conf := &Conf{}
	conf.setDefaults()

	clone := conf.Clone()
	require.Equal(t, conf, clone)

	clone.RTMPAddress = ":2121"
	require.Equal(t, ":1935", conf.RTMPAddress)
}
