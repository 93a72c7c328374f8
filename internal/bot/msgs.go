package bot

// User-facing texts.  Kept in one place so admins can review the
// wording without digging through handlers.
const (
	msgGreeting = "Здравствуйте! Это бот Бэби-театра «Домик».\n\n" +
		"/reserve — купить билет на спектакль\n" +
		"/birthday — заказать день рождения\n" +
		"/birthday_pay — оплатить подтверждённый день рождения\n" +
		"/afisha — афиша на месяц\n" +
		"/cancel — прервать оформление\n" +
		"/help — помощь"

	msgHelp = "Команды:\n" +
		"/reserve — купить билет\n" +
		"/birthday — заказать день рождения\n" +
		"/birthday_pay — оплатить день рождения\n" +
		"/afisha — афиша\n" +
		"/cancel — отменить текущее оформление\n\n" +
		"Если что-то пошло не так — напишите администратору."

	msgCanceled             = "Оформление отменено. Начать заново: /reserve или /birthday"
	msgNothingCancel        = "Сейчас нет активного оформления."
	msgSessionExpired       = "Сессия оформления истекла (30 минут без активности). Начните заново: /reserve или /birthday"
	msgSessionExpiredBooked = "Диалог завершён по неактивности, но ваша заявка в силе. Администратор обработает её, и ответ придёт в этот чат."

	msgChooseDate    = "Выберите дату:"
	msgChooseTime    = "Выберите время и спектакль:"
	msgChooseTicket  = "Выберите тип билета:"
	msgNoShowings    = "На ближайшее время спектаклей нет. Загляните позже!"
	msgSeatsGone     = "К сожалению, мест на этот сеанс уже не хватает. Выберите другой сеанс или тип билета."
	msgAskName       = "Как вас зовут? (ФИО)"
	msgAskPhone      = "Введите номер телефона:"
	msgBadPhone      = "Не получилось распознать номер. Пример: +7 915 938-35-29"
	msgAskEmail      = "Введите e-mail для чека об оплате:"
	msgBadEmail      = "Похоже, это не e-mail. Попробуйте ещё раз."
	msgWaitlistAdded = "Вы записаны в лист ожидания. Если места освободятся, с вами свяжется администратор."

	msgReserveDone = "Заявка отправлена администратору! После подтверждения придёт ссылка на оплату.\n" +
		"Заявка действительна 30 минут."
	msgTicketApproved = "Ваше бронирование подтверждено! 🎉 Ждём вас в театре."
	msgTicketRejected = "К сожалению, бронирование отклонено. Свяжитесь с администратором, чтобы подобрать другой вариант."
	msgTicketPaid     = "Оплата получена, спасибо! Бронирование передано администратору."

	msgBdayPlace      = "Где будет праздник?"
	msgBdayAddress    = "Укажите адрес площадки:"
	msgBdayDate       = "Введите дату праздника (дд.мм.гггг):"
	msgBadDate        = "Не получилось разобрать дату. Пример: 21.06.2026"
	msgBdayTime       = "Введите время начала (чч:мм):"
	msgBadTime        = "Не получилось разобрать время. Пример: 12:00"
	msgBdayEvent      = "Выберите спектакль для праздника:"
	msgBdayAge        = "Сколько лет имениннику? (например 5 или 5,5)"
	msgBadAge         = "Введите возраст числом, например 5 или 5,5."
	msgBdayFormat     = "Выберите формат:"
	msgBdayQtyChild   = "Сколько будет детей?"
	msgBdayQtyAdult   = "Сколько будет взрослых?"
	msgBdayChildName  = "Как зовут именинника?"
	msgBdayName       = "Как зовут вас? (контактное лицо)"
	msgBdayNote       = "Пожелания к празднику (или «-», если нет):"
	msgBdayDone       = "Заказ отправлен администратору! После подтверждения с вами свяжутся для предоплаты."
	msgBdayApproved   = "Ваш заказ дня рождения подтверждён! 🎉 Администратор свяжется с вами по оплате."
	msgBdayRejected   = "К сожалению, заказ отклонён. Свяжитесь с администратором — подберём другую дату."
	msgNoPaidBirthday = "Не нашлось подтверждённого заказа для оплаты. Если это ошибка — напишите администратору."

	msgInternalError = "Что-то пошло не так. Попробуйте ещё раз чуть позже."

	btnBack    = "⬅️ Назад"
	btnCancel  = "✖️ Отмена"
	btnConfirm = "✅ Всё верно"
	btnApprove = "✅ Подтвердить"
	btnReject  = "❌ Отклонить"
)
